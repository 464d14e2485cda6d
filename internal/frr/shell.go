package frr

import (
	"fmt"
	"os/exec"
	"strings"
)

// Shell abstracts the vtysh transport so the section editor can be exercised
// against fixture text without a live daemon.
type Shell interface {
	// ShowRunningConfig returns the daemon's current configuration text.
	ShowRunningConfig(daemon string) (string, error)
	// Reload replaces the daemon's configuration with the given text. The
	// daemon accepts or rejects the reload as a whole.
	Reload(daemon string, config string) error
}

// VtyshShell talks to FRR through the vtysh binary.
type VtyshShell struct {
	// Path to the vtysh binary, defaults to "vtysh" on PATH.
	Vtysh string
}

// NewVtyshShell returns a Shell backed by vtysh.
func NewVtyshShell() *VtyshShell {
	return &VtyshShell{Vtysh: "vtysh"}
}

func (s *VtyshShell) binary() string {
	if s.Vtysh != "" {
		return s.Vtysh
	}
	return "vtysh"
}

// ShowRunningConfig reads the running configuration of one daemon.
func (s *VtyshShell) ShowRunningConfig(daemon string) (string, error) {
	cmd := exec.Command(s.binary(), "-d", daemon, "-c", "show running-config")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("vtysh show running-config %s: %w: %s", daemon, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Reload applies the full configuration text to one daemon. The text is
// piped on stdin to avoid ARG_MAX limits on large configurations.
func (s *VtyshShell) Reload(daemon string, config string) error {
	cmd := exec.Command(s.binary(), "-d", daemon)
	input := "configure terminal\n" + config + "\nend\nwrite memory\n"
	cmd.Stdin = strings.NewReader(input)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("vtysh reload %s: %w: %s", daemon, err, strings.TrimSpace(string(out)))
	}
	return nil
}
