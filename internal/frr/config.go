// Package frr edits the line-oriented configuration of an FRR-style routing
// daemon in terms of owned sections. A section is addressed by a regular
// expression matching its first line (the anchor) and extends through every
// following indented line plus trailing exit/! separators. Handlers replace
// only the sections they own, leaving the rest of the snapshot untouched so
// multiple protocol handlers can coexist on one daemon.
package frr

import (
	"fmt"
	"regexp"
	"strings"

	"grimm.is/confplane/internal/logging"
)

// blankCommitRetries is the number of extra commits issued after a full
// removal. The daemon's reload path has been observed not to clear removed
// sections on a single pass; this masks that external defect.
// TODO: drop once frr-reload clears sections reliably in one commit.
const blankCommitRetries = 5

// Config is an in-memory snapshot of one daemon's configuration, loaded in
// full, mutated section-by-section and committed back in full. Last writer
// wins at snapshot granularity; commit serialization is the caller's job.
type Config struct {
	shell    Shell
	logger   *logging.Logger
	lines    []string
	original []string
}

// NewConfig creates an empty snapshot bound to the given transport.
func NewConfig(shell Shell) *Config {
	return &Config{
		shell:  shell,
		logger: logging.WithComponent("frr"),
	}
}

// LoadConfiguration reads the daemon's current configuration into the
// snapshot.
func (c *Config) LoadConfiguration(daemon string) error {
	text, err := c.shell.ShowRunningConfig(daemon)
	if err != nil {
		return err
	}
	c.SetText(text)
	return nil
}

// SetText replaces the snapshot content. Used by tests to load fixtures.
func (c *Config) SetText(text string) {
	c.lines = splitLines(text)
	c.original = append([]string(nil), c.lines...)
}

// Text returns the snapshot as configuration text.
func (c *Config) Text() string {
	return strings.Join(c.lines, "\n")
}

// ModifySection removes every section whose anchor line matches pattern and,
// when replacement is non-empty, inserts the replacement text in place of
// the first removed section. Returns the number of sections replaced.
func (c *Config) ModifySection(pattern, replacement string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("section anchor %q: %w", pattern, err)
	}

	count := 0
	var out []string
	for i := 0; i < len(c.lines); {
		if !re.MatchString(c.lines[i]) {
			out = append(out, c.lines[i])
			i++
			continue
		}
		i = skipSection(c.lines, i)
		if count == 0 && replacement != "" {
			out = append(out, splitLines(replacement)...)
		}
		count++
	}
	c.lines = out
	return count, nil
}

// AddBefore inserts text immediately before the first line matching pattern.
// The daemon's configuration is order-sensitive, so new sections are
// anchored ahead of a well-known later block. When no line matches, the
// text is appended at the end of the snapshot.
func (c *Config) AddBefore(pattern, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("insertion anchor %q: %w", pattern, err)
	}

	insert := splitLines(text)
	for i, line := range c.lines {
		if re.MatchString(line) {
			out := make([]string, 0, len(c.lines)+len(insert))
			out = append(out, c.lines[:i]...)
			out = append(out, insert...)
			out = append(out, c.lines[i:]...)
			c.lines = out
			return nil
		}
	}
	c.lines = append(c.lines, insert...)
	return nil
}

// CommitConfiguration writes the snapshot back to the daemon. Daemon
// failures propagate unmodified as fatal commit errors.
func (c *Config) CommitConfiguration(daemon string) error {
	return c.shell.Reload(daemon, c.Text())
}

// RetryBlankCommit re-issues the commit after a full removal. See
// blankCommitRetries; callers invoke this only when the newly rendered
// section text was empty.
func (c *Config) RetryBlankCommit(daemon string) error {
	for i := 0; i < blankCommitRetries; i++ {
		if err := c.shell.Reload(daemon, c.Text()); err != nil {
			return err
		}
	}
	return nil
}

// skipSection returns the index of the first line after the section starting
// at lines[start]. A section runs through every following indented line;
// trailing exit statements and one "!" separator belong to the section.
func skipSection(lines []string, start int) int {
	i := start + 1
	for i < len(lines) {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, " "), strings.HasPrefix(line, "\t"):
			i++
		case line == "exit" || strings.HasPrefix(line, "exit-"):
			i++
		default:
			if line == "!" {
				i++
			}
			return i
		}
	}
	return i
}

func splitLines(text string) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
