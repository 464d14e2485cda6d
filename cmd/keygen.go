package cmd

import (
	"fmt"

	"grimm.is/confplane/internal/interfaces/wireguard"
)

// RunKeygen generates a named WireGuard keypair in the keystore and prints
// the public key. Existing keypairs are never overwritten.
func RunKeygen(settingsPath, name string) error {
	env, err := Setup(settingsPath)
	if err != nil {
		return err
	}

	if name == "" {
		name = wireguard.DefaultKeyName
	}

	pub, err := env.Keystore.Generate(name)
	if err != nil {
		return err
	}

	fmt.Printf("Generated keypair %q in %s\n", name, env.Settings.KeystoreDir)
	fmt.Printf("Public key: %s\n", pub)
	return nil
}
