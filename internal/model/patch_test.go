package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestApply_StampsUpdatedAt(t *testing.T) {
	it := NewItem("comprar pan")
	before := it.UpdatedAt
	now := before.Add(time.Minute)

	err := Apply(&it, Patch{Title: strPtr("Pan")}, now)

	require.NoError(t, err)
	assert.Equal(t, "Pan", it.Title)
	assert.Equal(t, now, it.UpdatedAt)
}

func TestApply_NilMeansNoChange(t *testing.T) {
	it := NewItem("comprar pan")
	it.Notes = "en la panadería de siempre"

	err := Apply(&it, Patch{}, time.Now())

	require.NoError(t, err)
	assert.Equal(t, "en la panadería de siempre", it.Notes)
	assert.Equal(t, "comprar pan", it.Input)
}

func TestApply_EmptyClears(t *testing.T) {
	it := NewItem("comprar pan")
	it.Context = "@casa"

	err := Apply(&it, Patch{Context: strPtr("")}, time.Now())

	require.NoError(t, err)
	assert.Empty(t, it.Context)
}

func TestApply_UrgencyBounds(t *testing.T) {
	it := NewItem("comprar pan")

	err := Apply(&it, Patch{Urgency: intPtr(7)}, time.Now())
	assert.Error(t, err)

	err = Apply(&it, Patch{Urgency: intPtr(0)}, time.Now())
	assert.Error(t, err)
}

func TestApply_RecomputesPriority(t *testing.T) {
	it := NewItem("comprar pan")

	err := Apply(&it, Patch{Urgency: intPtr(4), Importance: intPtr(3)}, time.Now())

	require.NoError(t, err)
	assert.Equal(t, 12, it.PriorityScore)
}

func TestApply_EstimateBounds(t *testing.T) {
	it := NewItem("comprar pan")

	assert.Error(t, Apply(&it, Patch{EstimateMin: intPtr(601)}, time.Now()))
	assert.NoError(t, Apply(&it, Patch{EstimateMin: intPtr(30)}, time.Now()))
	assert.Equal(t, 30, it.EstimateMin)
}

func TestApply_TagLimit(t *testing.T) {
	it := NewItem("comprar pan")
	tags := []string{"a", "b", "c", "d", "e", "f"}

	err := Apply(&it, Patch{Tags: &tags}, time.Now())

	assert.ErrorIs(t, err, ErrTooManyTags)
}

func TestApply_UnknownKind(t *testing.T) {
	it := NewItem("comprar pan")

	err := Apply(&it, Patch{Kind: strPtr("chore")}, time.Now())

	assert.Error(t, err)
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Casa ", "casa", "TRABAJO", "", "banco"})
	assert.Equal(t, []string{"casa", "trabajo", "banco"}, got)
}
