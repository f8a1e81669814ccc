// Package base64 implements I2P's base64 alphabet, which replaces "+" with
// "-" and "/" with "~" so encoded keys are safe in file names and URLs.
package base64

import (
	b64 "encoding/base64"
)

// I2PEncodeAlphabet is RFC 4648 base64 with "-" and "~" as the last two symbols.
const I2PEncodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-~"

// I2PEncoding is the padded encoding used for private key material.
var I2PEncoding = b64.NewEncoding(I2PEncodeAlphabet)

// EncodeToString encodes data with the I2P alphabet.
func EncodeToString(data []byte) string {
	return I2PEncoding.EncodeToString(data)
}

// DecodeString decodes I2P base64 text. Input using the standard "+" and
// "/" symbols is rejected.
func DecodeString(str string) ([]byte, error) {
	return I2PEncoding.Strict().DecodeString(str)
}
