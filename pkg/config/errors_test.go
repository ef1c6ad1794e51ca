package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorError(t *testing.T) {
	baseErr := errors.New("base error")

	tests := []struct {
		name     string
		err      *ValidationError
		contains []string
	}{
		{
			name:     "full error",
			err:      NewValidationError("agent", "pubmed_search", "tools", baseErr),
			contains: []string{"agent", "pubmed_search", "tools", "base error"},
		},
		{
			name:     "no field",
			err:      NewValidationError("tool", "pubmed", "", errors.New("missing contact email")),
			contains: []string{"tool", "pubmed", "missing contact email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				assert.Contains(t, errStr, substr)
			}
		})
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	baseErr := errors.New("base error")
	err := NewValidationError("agent", "pubmed_search", "tools", baseErr)
	assert.ErrorIs(t, err, baseErr)
}

func TestLoadErrorError(t *testing.T) {
	err := NewLoadError("research.yaml", errors.New("file not found"))
	assert.Contains(t, err.Error(), "research.yaml")
	assert.Contains(t, err.Error(), "file not found")
}

func TestLoadErrorUnwrap(t *testing.T) {
	baseErr := errors.New("file not found")
	err := NewLoadError("research.yaml", baseErr)
	assert.ErrorIs(t, err, baseErr)
}
