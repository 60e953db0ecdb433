package extensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsername(t *testing.T) {
	tests := []struct {
		code     string
		username string
		ok       bool
	}{
		{"12345", "s0012345", true},
		{"1234567", "s1234567", true},
		{"7", "s0000007", true},
		{" 12345 ", "s0012345", true},
		{"123456789", "s123456789", false},
	}

	for _, tt := range tests {
		username, ok := Username(tt.code)
		assert.Equal(t, tt.username, username, tt.code)
		assert.Equal(t, tt.ok, ok, tt.code)
	}
}
