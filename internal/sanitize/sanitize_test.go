package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Llamar al banco", "Llamar al banco"},
		{"  con espacios  ", "con espacios"},
		{"Llamar al <b>banco</b>", "Llamar al banco"},
		{"<script>alert(1)</script>hola", "hola"},
		{"<img src=x onerror=alert(1)>pedir cita", "pedir cita"},
		{"caf&eacute; con leche", "café con leche"},
		{`<a href="https://evil">pulsa aquí</a>`, "pulsa aquí"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Text(tc.in), tc.in)
	}
}
