package session

import "fmt"

// ConfigError is the single error kind surfaced to the user: a validation or
// apply failure carrying a human-readable message. Any ConfigError aborts
// the commit for the owning subtree; the outer CLI prints it and exits 1.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// Errorf builds a ConfigError with a formatted message.
func Errorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
