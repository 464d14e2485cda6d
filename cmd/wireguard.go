package cmd

import (
	"fmt"

	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/interfaces/wireguard"
	"grimm.is/confplane/internal/session"
)

// RunWireguard re-applies the WireGuard subtree of the persisted tree to
// the kernel. With ifname set, only that interface is touched.
func RunWireguard(settingsPath, ifname string) error {
	env, err := Setup(settingsPath)
	if err != nil {
		return err
	}

	tree, err := env.LoadTree()
	if err != nil {
		return err
	}

	device := wireguard.NewNetlinkDevice()
	defer device.Close()
	h := wireguard.New(device, env.Keystore)

	if ifname != "" {
		c := &session.Commit{
			ID:        "cli",
			Running:   configtree.NewNode(),
			Candidate: tree,
		}
		if err := h.RunInterface(c, ifname); err != nil {
			return err
		}
		fmt.Printf("wireguard interface %s applied\n", ifname)
		return nil
	}

	sess, closer, err := env.NewSession(nil)
	if err != nil {
		return err
	}
	defer closer()

	sess.Register(h)
	sess.Replace(tree)

	if err := sess.Commit(); err != nil {
		return err
	}
	fmt.Println("wireguard configuration applied")
	return nil
}
