package masking

import (
	"regexp"
	"sort"
	"sync"

	"github.com/codeready-toolchain/nurseresearch/pkg/config"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

var (
	redactOnce     sync.Once
	redactPatterns []*CompiledPattern
)

// RedactText applies every built-in secret-masking pattern (API key, token,
// private key, AWS credential, certificate, GitHub token) to text and returns
// the result. Used by pkg/audit to scrub tool call payloads before they are
// written to an audit entry.
func RedactText(text string) string {
	redactOnce.Do(func() {
		patterns := config.GetBuiltinConfig().MaskingPatterns
		names := make([]string, 0, len(patterns))
		for name := range patterns {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			pattern := patterns[name]
			compiled, err := regexp.Compile(pattern.Pattern)
			if err != nil {
				continue
			}
			redactPatterns = append(redactPatterns, &CompiledPattern{
				Name:        name,
				Regex:       compiled,
				Replacement: pattern.Replacement,
				Description: pattern.Description,
			})
		}
	})
	for _, p := range redactPatterns {
		text = p.Regex.ReplaceAllString(text, p.Replacement)
	}
	return text
}
