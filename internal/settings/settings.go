// Package settings loads the daemon's own settings file. This is HCL and
// deliberately separate from the configuration tree it manages: the tree
// describes the network, the settings file describes where this program
// keeps its state.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "/etc/confplane/confplane.hcl"

// Settings is the decoded settings file.
type Settings struct {
	TreePath    string `hcl:"tree_path,optional"`
	KeystoreDir string `hcl:"keystore_dir,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	LogJSON     bool   `hcl:"log_json,optional"`

	FRR   *FRRSettings   `hcl:"frr,block"`
	Audit *AuditSettings `hcl:"audit,block"`
}

// FRRSettings controls how generated configuration reaches the FRR daemons.
type FRRSettings struct {
	VtyshPath string `hcl:"vtysh_path,optional"`
}

// AuditSettings controls the commit audit store.
type AuditSettings struct {
	Enabled       bool   `hcl:"enabled,optional"`
	DBPath        string `hcl:"db_path,optional"`
	RetentionDays int    `hcl:"retention_days,optional"`
}

// Default returns the settings used when no file exists.
func Default() *Settings {
	return &Settings{
		TreePath:    "/var/lib/confplane/running.yaml",
		KeystoreDir: "/etc/confplane/wireguard",
		LogLevel:    "info",
		FRR:         &FRRSettings{VtyshPath: "vtysh"},
		Audit: &AuditSettings{
			Enabled:       true,
			DBPath:        "/var/lib/confplane/audit.db",
			RetentionDays: 90,
		},
	}
}

// Load reads and decodes the settings file at path. A missing file yields
// the defaults; a malformed file is an error.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes settings from raw HCL. Unset fields keep their defaults.
func Parse(filename string, data []byte) (*Settings, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse settings %s: %w", filename, diags)
	}

	s := Default()
	if diags := gohcl.DecodeBody(file.Body, &hcl.EvalContext{}, s); diags.HasErrors() {
		return nil, fmt.Errorf("decode settings %s: %w", filename, diags)
	}
	if s.FRR == nil {
		s.FRR = Default().FRR
	} else if s.FRR.VtyshPath == "" {
		s.FRR.VtyshPath = "vtysh"
	}
	if s.Audit == nil {
		s.Audit = Default().Audit
	}
	return s, nil
}

// WriteDefault writes a commented default settings file to path, refusing
// to overwrite an existing one.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("settings file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	defaults := Default()
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("tree_path", cty.StringVal(defaults.TreePath))
	body.SetAttributeValue("keystore_dir", cty.StringVal(defaults.KeystoreDir))
	body.SetAttributeValue("log_level", cty.StringVal(defaults.LogLevel))
	body.AppendNewline()

	frr := body.AppendNewBlock("frr", nil).Body()
	frr.SetAttributeValue("vtysh_path", cty.StringVal(defaults.FRR.VtyshPath))

	audit := body.AppendNewBlock("audit", nil).Body()
	audit.SetAttributeValue("enabled", cty.BoolVal(defaults.Audit.Enabled))
	audit.SetAttributeValue("db_path", cty.StringVal(defaults.Audit.DBPath))
	audit.SetAttributeValue("retention_days", cty.NumberIntVal(int64(defaults.Audit.RetentionDays)))

	if err := os.WriteFile(path, f.Bytes(), 0644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}
