package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsValidAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		v := New()
		require.Len(t, v, 24)
		assert.True(t, Valid(v), "generated id %s should validate", v)
		assert.False(t, seen[v], "id should be unique: %s", v)
		seen[v] = true
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"507F1F77BCF86CD799439011", true},
		{"", false},
		{"123", false},
		{"507f1f77bcf86cd79943901z", false},
		{"507f1f77bcf86cd7994390111", false},
		{"../../etc/passwd", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid(tt.in), "Valid(%q)", tt.in)
	}
}

func TestFileName_KeepsExtension(t *testing.T) {
	name, err := FileName(".webp")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(name, ".webp"))
	assert.Len(t, strings.TrimSuffix(name, ".webp"), 21)
}
