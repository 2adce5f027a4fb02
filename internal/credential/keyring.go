package credential

import (
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "labdesk"

// MailboxPasswordKey returns the keyring key holding the IMAP password for
// username.
func MailboxPasswordKey(username string) string {
	return "mailbox:" + username
}

// openKeyring returns a configured keyring instance.
func openKeyring(configDir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(configDir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("labdesk-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Store reads and writes secrets in the system keyring. The file backend,
// used when no system keyring is available, lives under Dir.
type Store struct {
	Dir string
}

// Get retrieves a credential value by key from the system keyring.
func (s Store) Get(key string) (string, error) {
	ring, err := openKeyring(s.Dir)
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func (s Store) Set(key string, value string) error {
	ring, err := openKeyring(s.Dir)
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "labdesk " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func (s Store) Delete(key string) error {
	ring, err := openKeyring(s.Dir)
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
