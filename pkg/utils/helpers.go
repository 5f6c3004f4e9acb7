package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex generates a random hexadecimal string of length 2n.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// RandomID returns prefix-<2n hex digits>, e.g. a player id for a client
// started without one.
func RandomID(prefix string, n int) string {
	if prefix == "" {
		return RandomHex(n)
	}
	return prefix + "-" + RandomHex(n)
}
