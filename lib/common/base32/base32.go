// Package base32 implements I2P's lowercase base32 alphabet and the
// ".b32.i2p" address form built on it.
package base32

import (
	"crypto/sha256"
	b32 "encoding/base32"
	"strings"
)

// I2PEncodeAlphabet is RFC 4648 base32 in lowercase.
const I2PEncodeAlphabet = "abcdefghijklmnopqrstuvwxyz234567"

// AddressSuffix terminates every base32 destination address.
const AddressSuffix = ".b32.i2p"

// I2PEncoding is the unpadded encoding used for addresses.
var I2PEncoding = b32.NewEncoding(I2PEncodeAlphabet).WithPadding(b32.NoPadding)

// EncodeToString encodes data without padding.
func EncodeToString(data []byte) string {
	return I2PEncoding.EncodeToString(data)
}

// DecodeString decodes unpadded I2P base32 text.
func DecodeString(data string) ([]byte, error) {
	return I2PEncoding.DecodeString(data)
}

// AddressFromDestination hashes serialized destination bytes and returns the
// ".b32.i2p" address for them.
func AddressFromDestination(destination []byte) string {
	sum := sha256.Sum256(destination)
	return EncodeToString(sum[:]) + AddressSuffix
}

// IsAddress reports whether s looks like a base32 destination address: a
// 52 character hash followed by AddressSuffix.
func IsAddress(s string) bool {
	host, ok := strings.CutSuffix(s, AddressSuffix)
	if !ok || len(host) != 52 {
		return false
	}
	decoded, err := DecodeString(host)
	return err == nil && len(decoded) == sha256.Size
}
