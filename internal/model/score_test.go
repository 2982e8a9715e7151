package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionableScore_WellFormedAction(t *testing.T) {
	vague := ActionableScore("banco")
	good := ActionableScore("Llamar al banco con el extracto en la mano")

	assert.Greater(t, good, vague)
	assert.GreaterOrEqual(t, good, 75)
}

func TestActionableScore_Empty(t *testing.T) {
	assert.Equal(t, 0, ActionableScore(""))
	assert.Equal(t, 0, ActionableScore("   "))
}

func TestActionableScore_Bounds(t *testing.T) {
	cases := []string{
		"x",
		"Comprar billetes de tren en la web de renfe",
		"cosas varias que no son una acción concreta ni tienen verbo claro",
	}
	for _, text := range cases {
		got := ActionableScore(text)
		assert.GreaterOrEqual(t, got, 0, text)
		assert.LessOrEqual(t, got, 100, text)
	}
}

func TestActionableScore_VerbDetection(t *testing.T) {
	withVerb := ActionableScore("Revisar el informe trimestral")
	noVerb := ActionableScore("el informe trimestral pendiente")

	assert.Greater(t, withVerb, noVerb)
}
