package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePostcode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already normalized", "N29QL", "N29QL"},
		{"standard spacing", "N2 9QL", "N29QL"},
		{"lowercase with padding", "  n2 9ql ", "N29QL"},
		{"double space", "SW1A  1AA", "SW1A1AA"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePostcode(tt.input))
		})
	}
}

func TestSpacingVariants(t *testing.T) {
	assert.Equal(t, []string{"N2 9QL", "N29 QL"}, SpacingVariants("N29QL"))
	assert.Equal(t, []string{"SW1A 1AA", "SW1A1 AA"}, SpacingVariants("SW1A1AA"))
}

func TestSpacingVariants_TooShort(t *testing.T) {
	assert.Nil(t, SpacingVariants("N2"))
	assert.Nil(t, SpacingVariants(""))
}

func TestDistrict(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"N2 9QL", "N2"},
		{"n29ql", "N2"},
		{"SW1A 1AA", "SW1"},
		{"EC1A 1BB", "EC1"},
		{"W1A 0AX", "W1"},
		{"M1 1AA", "M1"},
		{"", ""},
		{"12345", ""},
		{"???", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, District(tt.input), "postcode %q", tt.input)
	}
}

func TestArea(t *testing.T) {
	assert.Equal(t, "SW", Area("SW1A 1AA"))
	assert.Equal(t, "N", Area("n2 9ql"))
	assert.Equal(t, "EC", Area("EC1A 1BB"))
	assert.Equal(t, "", Area("123"))
	assert.Equal(t, "", Area(""))
}
