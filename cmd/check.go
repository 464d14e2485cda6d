package cmd

import (
	"fmt"

	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/frr"
	"grimm.is/confplane/internal/host"
	"grimm.is/confplane/internal/interfaces/wireguard"
	"grimm.is/confplane/internal/protocols/isis"
	"grimm.is/confplane/internal/session"
)

// RunCheck loads a tree file and runs every verify stage against it without
// applying anything. The FRR and kernel backends are never touched.
func RunCheck(settingsPath, treePath string) error {
	if treePath == "" {
		return fmt.Errorf("usage: confplane check <tree.yaml>")
	}

	env, err := Setup(settingsPath)
	if err != nil {
		return err
	}

	tree, err := configtree.LoadFile(treePath)
	if err != nil {
		return err
	}

	c := &session.Commit{
		ID:        "check",
		Running:   configtree.NewNode(),
		Candidate: tree,
	}

	checked := 0

	vrfs := []string{""}
	if names := tree.Get("vrf", "name"); names != nil {
		vrfs = append(vrfs, names.ChildNames()...)
	}
	for _, vrf := range vrfs {
		path := []string{"protocols", "isis"}
		if vrf != "" {
			path = []string{"vrf", "name", vrf, "protocols", "isis"}
		}
		if !tree.Exists(path...) {
			continue
		}
		h := isis.New(&frr.FakeShell{}, host.NetlinkQuery{}, vrf)
		if err := h.Verify(h.GetConfig(c)); err != nil {
			return err
		}
		checked++
	}

	wg := wireguard.New(&wireguard.FakeDevice{}, env.Keystore)
	if node := tree.Get("interfaces", "wireguard"); node != nil {
		for _, name := range node.ChildNames() {
			d := wg.GetConfig(c, name)
			if err := wg.Verify(d, name); err != nil {
				return err
			}
			checked++
		}
	}

	fmt.Printf("Configuration valid!\nChecked subtrees: %d\n", checked)
	return nil
}
