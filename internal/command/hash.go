package command

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainCommand separates command ids from any other hash in the system.
// The version suffix leaves room for a future encoding change.
const DomainCommand = "chatdom/command/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ID computes the content-addressed id of a command at position seq in a
// session. The same inputs always yield the same id.
func ID(session string, seq int64, cmd Command) (string, error) {
	obj := Object{
		"session": session,
		"seq":     seq,
		"command": cmd.object(),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("command id: %w", err)
	}
	return hashWithDomain(DomainCommand, canonical), nil
}
