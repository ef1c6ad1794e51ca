package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactText_MasksAPIKeyAndToken(t *testing.T) {
	in := `{"api_key": "sk-abcdefghijklmnopqrstuvwxyz0123456789", "token": "eyJhbGciOiJIUzI1NiJ9.payload.sig"}`
	out := RedactText(in)
	assert.NotContains(t, out, "sk-abcdefghijklmnopqrstuvwxyz0123456789")
	assert.Contains(t, out, "[MASKED_API_KEY]")
}

func TestRedactText_LeavesOrdinaryTextUnchanged(t *testing.T) {
	in := `PMID:30191554 found for query "nurse burnout"`
	assert.Equal(t, in, RedactText(in))
}
