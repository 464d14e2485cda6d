// Package isis translates the protocols/isis configuration subtree into
// isisd configuration and applies it through the owned-section editor.
// The pipeline per commit is strictly linear: GetConfig, Verify, Generate,
// Apply, short-circuiting on the first error.
package isis

import (
	"fmt"
	"regexp"

	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/frr"
	"grimm.is/confplane/internal/host"
	"grimm.is/confplane/internal/logging"
	"grimm.is/confplane/internal/session"
)

// Daemon is the FRR daemon owning the rendered sections.
const Daemon = "isisd"

// insertAnchor is the start of the first config block that must stay after
// our sections; the daemon's configuration is order-sensitive text.
const insertAnchor = `(ip prefix-list .*|route-map .*|line vty)`

// Handler runs the ISIS commit pipeline for the default or one named VRF.
type Handler struct {
	shell  frr.Shell
	host   host.Query
	vrf    string
	logger *logging.Logger
}

// New creates a handler. vrf is empty for the default routing context.
func New(shell frr.Shell, hostq host.Query, vrf string) *Handler {
	return &Handler{
		shell:  shell,
		host:   hostq,
		vrf:    vrf,
		logger: logging.WithComponent("isis"),
	}
}

// Name implements session.Handler.
func (h *Handler) Name() string {
	if h.vrf != "" {
		return "protocols-isis-vrf-" + h.vrf
	}
	return "protocols-isis"
}

// OwnedPaths implements session.Handler.
func (h *Handler) OwnedPaths() [][]string {
	return [][]string{h.basePath()}
}

func (h *Handler) basePath() []string {
	if h.vrf != "" {
		return []string{"vrf", "name", h.vrf, "protocols", "isis"}
	}
	return []string{"protocols", "isis"}
}

// Run executes the full pipeline against one commit.
func (h *Handler) Run(c *session.Commit) error {
	d := h.GetConfig(c)
	if err := h.Verify(d); err != nil {
		return err
	}
	rendered, err := h.Generate(d)
	if err != nil {
		return err
	}
	return h.Apply(d, rendered)
}

// GetConfig reads the isis subtree from the candidate snapshot, tags the
// VRF context and injects the derived interface_removed and deleted keys.
func (h *Handler) GetConfig(c *session.Commit) configtree.Dict {
	base := h.basePath()
	d := c.Candidate.GetDict(base...)

	// The VRF name must be assigned before the deletion check below, else a
	// deletion would target the default instance instead of the VRF one.
	if h.vrf != "" {
		d[configtree.KeyVRF] = h.vrf
	}

	// The handler serves both the default and VRF instances; only report
	// interfaces removed under our own base so a commit in one routing
	// context never touches sections belonging to another.
	if removed := c.Removed(append(base, "interface")...); len(removed) > 0 {
		d["interface_removed"] = removed
	}

	if !c.Exists(base...) {
		d[configtree.KeyDeleted] = ""
	}
	return d
}

// Generate renders the daemon-native configuration text for the dict.
// Deletion renders to an empty string. Verify is assumed to have run.
func (h *Handler) Generate(d configtree.Dict) (string, error) {
	if len(d) == 0 || d.Has(configtree.KeyDeleted) {
		return "", nil
	}
	return renderTemplate(d)
}

// Apply loads the daemon snapshot, removes every section this handler owns
// (the router block plus one block per current or removed interface),
// inserts the rendered text before the insertion anchor and commits.
func (h *Handler) Apply(d configtree.Dict, rendered string) error {
	cfg := frr.NewConfig(h.shell)
	if err := cfg.LoadConfiguration(Daemon); err != nil {
		return err
	}

	if err := h.Stage(cfg, d, rendered); err != nil {
		return err
	}

	if diff := cfg.PendingDiff(); diff != "" {
		h.logger.Debug("isisd configuration change", "diff", diff)
	}

	if err := cfg.CommitConfiguration(Daemon); err != nil {
		return err
	}
	if rendered == "" {
		// Full removal: see frr.RetryBlankCommit for why one commit is not
		// enough with the current daemon reload path.
		return cfg.RetryBlankCommit(Daemon)
	}
	return nil
}

// Stage edits a loaded daemon snapshot in place without committing it:
// owned sections out, rendered text in. Used by Apply and by the diff
// command, which wants the pending change without touching the daemon.
func (h *Handler) Stage(cfg *frr.Config, d configtree.Dict, rendered string) error {
	vrf := ""
	if v := d.String(configtree.KeyVRF); v != "" {
		vrf = " vrf " + v
	}

	if _, err := cfg.ModifySection(fmt.Sprintf(`^router isis \S+%s$`, vrf), ""); err != nil {
		return err
	}
	for _, key := range []string{"interface", "interface_removed"} {
		for _, intf := range d.Strings(key) {
			anchor := fmt.Sprintf(`^interface %s%s$`, regexp.QuoteMeta(intf), vrf)
			if _, err := cfg.ModifySection(anchor, ""); err != nil {
				return err
			}
		}
	}

	return cfg.AddBefore(insertAnchor, rendered)
}
