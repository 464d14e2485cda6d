package cmd

import (
	"fmt"

	"grimm.is/confplane/internal/host"
	"grimm.is/confplane/internal/protocols/isis"
)

// RunISIS re-applies the ISIS subtree of the persisted tree to isisd, for
// the default routing context or one named VRF.
func RunISIS(settingsPath, vrf string) error {
	env, err := Setup(settingsPath)
	if err != nil {
		return err
	}

	tree, err := env.LoadTree()
	if err != nil {
		return err
	}

	sess, closer, err := env.NewSession(nil)
	if err != nil {
		return err
	}
	defer closer()

	sess.Register(isis.New(env.Shell(), host.NetlinkQuery{}, vrf))
	sess.Replace(tree)

	if err := sess.Commit(); err != nil {
		return err
	}
	if vrf != "" {
		fmt.Printf("isis configuration applied (vrf %s)\n", vrf)
	} else {
		fmt.Println("isis configuration applied")
	}
	return nil
}
