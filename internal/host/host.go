// Package host queries live kernel interface state. Validation uses it to
// check declared facts (VRF membership) against what is actually configured
// on the box, which the configuration tree cannot know by itself.
package host

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// InterfaceConfig is the subset of kernel link state validation cares about.
type InterfaceConfig struct {
	Name   string
	Master string // enslaving device (VRF or bridge), "" when none
	MTU    int
	OperUp bool
}

// Query resolves interface names to their current kernel state.
type Query interface {
	GetInterfaceConfig(name string) (*InterfaceConfig, error)
}

// NetlinkQuery reads interface state from the kernel via netlink.
type NetlinkQuery struct{}

// GetInterfaceConfig returns the live state of one interface.
func (NetlinkQuery) GetInterfaceConfig(name string) (*InterfaceConfig, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", name, err)
	}
	attrs := link.Attrs()

	cfg := &InterfaceConfig{
		Name:   name,
		MTU:    attrs.MTU,
		OperUp: attrs.OperState == netlink.OperUp,
	}

	if attrs.MasterIndex != 0 {
		master, err := netlink.LinkByIndex(attrs.MasterIndex)
		if err != nil {
			return nil, fmt.Errorf("interface %s master: %w", name, err)
		}
		cfg.Master = master.Attrs().Name
	}
	return cfg, nil
}

// StaticQuery serves canned interface state, keyed by name. Used in tests
// and dry runs where no kernel is available.
type StaticQuery map[string]InterfaceConfig

// GetInterfaceConfig returns the canned state for name.
func (q StaticQuery) GetInterfaceConfig(name string) (*InterfaceConfig, error) {
	cfg, ok := q[name]
	if !ok {
		return nil, fmt.Errorf("interface %s: not found", name)
	}
	cfg.Name = name
	return &cfg, nil
}
