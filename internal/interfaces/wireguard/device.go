package wireguard

import (
	"fmt"
	"strings"

	"github.com/vishvananda/netlink"
	"golang.zx2c4.com/wireguard/wgctrl"

	"grimm.is/confplane/internal/logging"
)

// Device applies a generated plan to the kernel. Production uses netlink and
// wgctrl; tests substitute a fake so pipelines run without a kernel module.
type Device interface {
	// Ensure brings the interface into the state described by the plan.
	Ensure(plan *Plan) error
	// Remove deletes the interface. Removing a missing interface is a no-op.
	Remove(name string) error
}

// NetlinkDevice drives the WireGuard kernel module through netlink and the
// wgctrl genetlink interface.
type NetlinkDevice struct {
	logger *logging.Logger

	wgClient *wgctrl.Client
}

// NewNetlinkDevice returns a kernel-backed Device.
func NewNetlinkDevice() *NetlinkDevice {
	return &NetlinkDevice{logger: logging.WithComponent("wireguard")}
}

func (d *NetlinkDevice) client() (*wgctrl.Client, error) {
	if d.wgClient != nil {
		return d.wgClient, nil
	}
	c, err := wgctrl.New()
	if err != nil {
		return nil, fmt.Errorf("open wgctrl: %w", err)
	}
	d.wgClient = c
	return c, nil
}

// Close releases the wgctrl handle.
func (d *NetlinkDevice) Close() error {
	if d.wgClient != nil {
		return d.wgClient.Close()
	}
	return nil
}

// Ensure creates the link if needed, configures the device (replacing the
// full peer set so removed peers disappear), synchronizes addresses, sets
// the MTU and brings the link up.
func (d *NetlinkDevice) Ensure(plan *Plan) error {
	linkAttr := netlink.NewLinkAttrs()
	linkAttr.Name = plan.Name
	link := &netlink.Wireguard{LinkAttrs: linkAttr}

	if existing, err := netlink.LinkByName(plan.Name); err == nil {
		if existing.Type() != "wireguard" {
			return fmt.Errorf("interface %s exists but is not wireguard (type: %s)", plan.Name, existing.Type())
		}
	} else {
		if err := netlink.LinkAdd(link); err != nil {
			return fmt.Errorf("create wireguard interface %s: %w", plan.Name, err)
		}
	}

	l, err := netlink.LinkByName(plan.Name)
	if err != nil {
		return fmt.Errorf("get link %s: %w", plan.Name, err)
	}

	client, err := d.client()
	if err != nil {
		return err
	}
	if err := client.ConfigureDevice(plan.Name, plan.Config); err != nil {
		return fmt.Errorf("configure wireguard device %s: %w", plan.Name, err)
	}

	if err := d.syncAddresses(l, plan.Addresses); err != nil {
		return err
	}

	if plan.MTU > 0 {
		if err := netlink.LinkSetMTU(l, plan.MTU); err != nil {
			d.logger.Warn("failed to set MTU", "interface", plan.Name, "error", err)
		}
	}

	if err := netlink.LinkSetUp(l); err != nil {
		return fmt.Errorf("bring %s up: %w", plan.Name, err)
	}

	d.logger.Info("wireguard interface configured", "interface", plan.Name, "peers", len(plan.Config.Peers))
	return nil
}

// syncAddresses makes the link's address set equal to the declared one.
func (d *NetlinkDevice) syncAddresses(l netlink.Link, addrs []string) error {
	current, err := netlink.AddrList(l, 0)
	if err != nil {
		return fmt.Errorf("list addresses on %s: %w", l.Attrs().Name, err)
	}

	declared := make([]*netlink.Addr, 0, len(addrs))
	for _, a := range addrs {
		addr, err := netlink.ParseAddr(a)
		if err != nil {
			return fmt.Errorf("invalid address %s: %w", a, err)
		}
		declared = append(declared, addr)
	}

	for _, addr := range declared {
		exists := false
		for _, cur := range current {
			if cur.Equal(*addr) {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		if err := netlink.AddrAdd(l, addr); err != nil {
			if strings.Contains(err.Error(), "file exists") {
				continue
			}
			return fmt.Errorf("add address %s: %w", addr, err)
		}
	}

	for _, cur := range current {
		stale := true
		for _, addr := range declared {
			if cur.Equal(*addr) {
				stale = false
				break
			}
		}
		if stale {
			if err := netlink.AddrDel(l, &cur); err != nil {
				d.logger.Warn("failed to remove stale address", "address", cur.String(), "error", err)
			}
		}
	}
	return nil
}

// Remove deletes the interface.
func (d *NetlinkDevice) Remove(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("get link %s: %w", name, err)
	}
	if err := netlink.LinkDel(link); err != nil {
		return fmt.Errorf("delete interface %s: %w", name, err)
	}
	d.logger.Info("wireguard interface removed", "interface", name)
	return nil
}

// FakeDevice records plans instead of touching the kernel.
type FakeDevice struct {
	Ensured   []*Plan
	Removed   []string
	EnsureErr error
	RemoveErr error
}

// Ensure implements Device.
func (f *FakeDevice) Ensure(plan *Plan) error {
	if f.EnsureErr != nil {
		return f.EnsureErr
	}
	f.Ensured = append(f.Ensured, plan)
	return nil
}

// Remove implements Device.
func (f *FakeDevice) Remove(name string) error {
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	f.Removed = append(f.Removed, name)
	return nil
}
