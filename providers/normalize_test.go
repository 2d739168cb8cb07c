package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeArtistName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "Black Sabbath", "Black Sabbath"},
		{"numbered disambiguation", "Genesis (2)", "Genesis"},
		{"bigger number", "Nirvana (13)", "Nirvana"},
		{"whitespace", "  Genesis (2)  ", "Genesis"},
		{"parens mid-name stay", "Sunn O))) (3)", "Sunn O)))"},
		{"non-numeric parens stay", "Type O Negative (live)", "Type O Negative (live)"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeArtistName(tt.raw))
		})
	}
}

func TestNormalizeYear(t *testing.T) {
	assert.Nil(t, NormalizeYear(0))
	assert.Nil(t, NormalizeYear(999))
	assert.Nil(t, NormalizeYear(1000))
	if got := NormalizeYear(1001); assert.NotNil(t, got) {
		assert.Equal(t, 1001, *got)
	}
	if got := NormalizeYear(1989); assert.NotNil(t, got) {
		assert.Equal(t, 1989, *got)
	}
}
