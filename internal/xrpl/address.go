package xrpl

import (
	"bytes"
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// rippleAlphabet is the base58 dictionary used for classic addresses.
// It differs from the Bitcoin alphabet; "r" maps to zero, which is why
// every account address starts with r.
const rippleAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

var addressAlphabet = base58.NewAlphabet(rippleAlphabet)

// accountIDPrefix is the version byte of a classic account address.
const accountIDPrefix = 0x00

// IsValidAddress reports whether s decodes as a classic account address:
// ripple-alphabet base58, version byte 0x00, 20-byte account ID and a
// valid 4-byte double-SHA256 checksum.
func IsValidAddress(s string) bool {
	decoded, err := base58.DecodeAlphabet(s, addressAlphabet)
	if err != nil {
		return false
	}
	// version byte + 20-byte account ID + 4-byte checksum
	if len(decoded) != 25 || decoded[0] != accountIDPrefix {
		return false
	}

	payload := decoded[:21]
	checksum := decoded[21:]

	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return bytes.Equal(second[:4], checksum)
}
