// Package idgen generates short random IDs for protection log entries and
// backup records.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// ID prefixes by record kind.
const (
	PrefixProtectionLog = "pl-"
	PrefixBackup        = "bk-"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	length   = 12
)

// New returns prefix followed by random alphanumeric characters.
func New(prefix string) (string, error) {
	id, err := nanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

// ProtectionLogID returns a new protection log ID.
func ProtectionLogID() (string, error) { return New(PrefixProtectionLog) }

// BackupID returns a new backup record ID.
func BackupID() (string, error) { return New(PrefixBackup) }
