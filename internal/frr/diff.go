package frr

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// PendingDiff returns a unified diff between the configuration as loaded
// from the daemon and the mutated snapshot. Empty when nothing changed.
func (c *Config) PendingDiff() string {
	before := strings.Join(c.original, "\n")
	after := c.Text()
	if before == after {
		return ""
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "Running",
		ToFile:   "Generated",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
