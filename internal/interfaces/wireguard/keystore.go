package wireguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// DefaultKeyName is the keypair used when an interface does not name one.
const DefaultKeyName = "default"

// Keystore holds named WireGuard keypairs on disk, one directory per name
// containing private.key and public.key. Keypairs are created explicitly
// (keygen command or test fixture), never as an import side effect.
type Keystore struct {
	Dir string
}

// NewKeystore returns a keystore rooted at dir.
func NewKeystore(dir string) *Keystore {
	return &Keystore{Dir: dir}
}

func (k *Keystore) keyPath(name, file string) string {
	return filepath.Join(k.Dir, name, file)
}

// Exists reports whether a named keypair is present.
func (k *Keystore) Exists(name string) bool {
	_, err := os.Stat(k.keyPath(name, "private.key"))
	return err == nil
}

// PrivateKey loads the named private key.
func (k *Keystore) PrivateKey(name string) (wgtypes.Key, error) {
	return k.readKey(k.keyPath(name, "private.key"))
}

// PublicKey loads the named public key.
func (k *Keystore) PublicKey(name string) (wgtypes.Key, error) {
	return k.readKey(k.keyPath(name, "public.key"))
}

func (k *Keystore) readKey(path string) (wgtypes.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return wgtypes.Key{}, fmt.Errorf("read key %s: %w", path, err)
	}
	key, err := wgtypes.ParseKey(strings.TrimSpace(string(data)))
	if err != nil {
		return wgtypes.Key{}, fmt.Errorf("parse key %s: %w", path, err)
	}
	return key, nil
}

// Generate creates a new named keypair, refusing to overwrite an existing
// one. Returns the base64 public key.
func (k *Keystore) Generate(name string) (string, error) {
	if k.Exists(name) {
		return "", fmt.Errorf("keypair %q already exists in %s", name, k.Dir)
	}

	key, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return "", fmt.Errorf("generate private key: %w", err)
	}

	dir := filepath.Join(k.Dir, name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create key directory %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "private.key"), []byte(key.String()+"\n"), 0600); err != nil {
		return "", fmt.Errorf("write private key: %w", err)
	}
	pub := key.PublicKey()
	if err := os.WriteFile(filepath.Join(dir, "public.key"), []byte(pub.String()+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write public key: %w", err)
	}
	return pub.String(), nil
}
