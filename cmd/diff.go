package cmd

import (
	"fmt"

	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/frr"
	"grimm.is/confplane/internal/host"
	"grimm.is/confplane/internal/protocols/isis"
	"grimm.is/confplane/internal/session"
)

// RunDiff prints the unified diff between the daemon's running configuration
// and what applying the persisted tree would produce. Nothing is committed.
func RunDiff(settingsPath, vrf string) error {
	env, err := Setup(settingsPath)
	if err != nil {
		return err
	}

	tree, err := env.LoadTree()
	if err != nil {
		return err
	}

	c := &session.Commit{
		ID:        "diff",
		Running:   configtree.NewNode(),
		Candidate: tree,
	}

	h := isis.New(env.Shell(), host.NetlinkQuery{}, vrf)
	d := h.GetConfig(c)
	rendered, err := h.Generate(d)
	if err != nil {
		return err
	}

	cfg := frr.NewConfig(env.Shell())
	if err := cfg.LoadConfiguration(isis.Daemon); err != nil {
		return err
	}
	if err := h.Stage(cfg, d, rendered); err != nil {
		return err
	}

	diff := cfg.PendingDiff()
	if diff == "" {
		fmt.Println("No changes.")
		return nil
	}
	fmt.Print(diff)
	return nil
}
