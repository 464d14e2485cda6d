package frr

// FakeShell is an in-memory Shell for tests and dry runs: it serves canned
// running-config text and records every reload it receives.
type FakeShell struct {
	Running   string
	Reloads   []string
	ShowErr   error
	ReloadErr error
}

// ShowRunningConfig implements Shell.
func (f *FakeShell) ShowRunningConfig(daemon string) (string, error) {
	if f.ShowErr != nil {
		return "", f.ShowErr
	}
	return f.Running, nil
}

// Reload implements Shell. Successful reloads replace the running text so
// consecutive commits observe their own writes.
func (f *FakeShell) Reload(daemon string, config string) error {
	if f.ReloadErr != nil {
		return f.ReloadErr
	}
	f.Reloads = append(f.Reloads, config)
	f.Running = config
	return nil
}
