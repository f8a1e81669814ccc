package keys

import (
	"github.com/go-i2p/common/destination"
	"github.com/go-i2p/common/key_certificate"
	"github.com/go-i2p/common/keys_and_cert"
	"github.com/go-i2p/crypto/curve25519"
	"github.com/go-i2p/crypto/ed25519"
	"github.com/go-i2p/crypto/types"
	"github.com/go-i2p/i2ptunnelctl/lib/common/base32"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

// DestinationKeys is one destination identity together with the private
// keys that own it.
type DestinationKeys struct {
	destination       *destination.Destination
	encryptionPrivKey types.PrivateEncryptionKey
	signingPrivKey    types.SigningPrivateKey
}

// NewDestinationKeys generates a fresh Ed25519/X25519 destination. Every
// call returns an independent identity.
func NewDestinationKeys() (*DestinationKeys, error) {
	signingPubKey, signingPrivKey, err := ed25519.GenerateEd25519KeyPair()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to generate Ed25519 key pair")
	}

	encryptionPubKey, encryptionPrivKey, err := curve25519.GenerateKeyPair()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to generate X25519 key pair")
	}

	dest, err := buildDestination(encryptionPubKey, signingPubKey)
	if err != nil {
		return nil, err
	}

	log.WithField("at", "NewDestinationKeys").Debug("generated destination identity")
	return &DestinationKeys{
		destination:       dest,
		encryptionPrivKey: encryptionPrivKey,
		signingPrivKey:    signingPrivKey,
	}, nil
}

// buildDestination assembles the KeysAndCert for an Ed25519/X25519 pair.
// Padding is zero-filled so the same keys always produce the same
// destination bytes.
func buildDestination(encryptionPubKey types.ReceivingPublicKey, signingPubKey types.SigningPublicKey) (*destination.Destination, error) {
	keyCert, err := key_certificate.NewEd25519X25519KeyCertificate()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to create key certificate")
	}

	sizes, err := key_certificate.GetKeySizes(
		key_certificate.KEYCERT_SIGN_ED25519,
		key_certificate.KEYCERT_CRYPTO_X25519,
	)
	if err != nil {
		return nil, oops.Wrapf(err, "failed to get key sizes")
	}
	paddingSize := keys_and_cert.KEYS_AND_CERT_DATA_SIZE - (sizes.CryptoPublicKeySize + sizes.SigningPublicKeySize)
	if paddingSize < 0 {
		return nil, oops.Errorf("invalid key sizes: padding would be negative")
	}

	keysAndCert, err := keys_and_cert.NewKeysAndCert(
		keyCert,
		encryptionPubKey,
		make([]byte, paddingSize),
		signingPubKey,
	)
	if err != nil {
		return nil, oops.Wrapf(err, "failed to create KeysAndCert")
	}

	return &destination.Destination{KeysAndCert: keysAndCert}, nil
}

// Destination returns the public destination.
func (dk *DestinationKeys) Destination() *destination.Destination {
	return dk.destination
}

// Address returns the ".b32.i2p" address of the destination.
func (dk *DestinationKeys) Address() (string, error) {
	destBytes, err := dk.destination.Bytes()
	if err != nil {
		return "", oops.Wrapf(err, "failed to serialize destination")
	}
	return base32.AddressFromDestination(destBytes), nil
}
