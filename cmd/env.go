// Package cmd implements the confplane subcommands.
package cmd

import (
	"grimm.is/confplane/internal/audit"
	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/frr"
	"grimm.is/confplane/internal/interfaces/wireguard"
	"grimm.is/confplane/internal/logging"
	"grimm.is/confplane/internal/metrics"
	"grimm.is/confplane/internal/session"
	"grimm.is/confplane/internal/settings"
)

// Env bundles what every subcommand needs: decoded settings, the keystore
// and factories for the heavier collaborators.
type Env struct {
	Settings *settings.Settings
	Keystore *wireguard.Keystore
}

// Setup loads settings and configures the default logger from them.
func Setup(settingsPath string) (*Env, error) {
	s, err := settings.Load(settingsPath)
	if err != nil {
		return nil, err
	}

	cfg := logging.DefaultConfig()
	cfg.JSON = s.LogJSON
	switch s.LogLevel {
	case "debug":
		cfg.Level = logging.LevelDebug
	case "warn":
		cfg.Level = logging.LevelWarn
	case "error":
		cfg.Level = logging.LevelError
	}
	logging.SetDefault(logging.New(cfg))

	return &Env{
		Settings: s,
		Keystore: wireguard.NewKeystore(s.KeystoreDir),
	}, nil
}

// Shell returns the vtysh transport configured by the settings file.
func (e *Env) Shell() frr.Shell {
	return &frr.VtyshShell{Vtysh: e.Settings.FRR.VtyshPath}
}

// LoadTree reads the persisted configuration tree. A missing file is an
// empty tree.
func (e *Env) LoadTree() (*configtree.Node, error) {
	return configtree.LoadFile(e.Settings.TreePath)
}

// NewSession builds a commit session over the persisted running tree with
// the metrics recorder and, when enabled, the audit store attached. The
// returned closer flushes the audit store.
func (e *Env) NewSession(running *configtree.Node) (*session.Session, func(), error) {
	opts := []session.Option{
		session.WithPersistence(e.Settings.TreePath),
		session.WithObserver(metrics.Get()),
	}

	closer := func() {}
	if e.Settings.Audit.Enabled {
		store, err := audit.NewStore(e.Settings.Audit.DBPath, e.Settings.Audit.RetentionDays)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, session.WithObserver(store))
		closer = func() { store.Close() }
	}

	return session.New(running, opts...), closer, nil
}
