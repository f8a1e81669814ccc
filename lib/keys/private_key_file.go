package keys

import (
	"bytes"

	"github.com/go-i2p/common/destination"
	"github.com/go-i2p/crypto/curve25519"
	"github.com/go-i2p/crypto/ed25519"
	"github.com/go-i2p/crypto/types"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

// encryptionPrivateKeySize is the X25519 private key length.
const encryptionPrivateKeySize = 32

// PrivateKeyFile serializes the identity as destination bytes followed by
// the encryption and signing private keys.
func (dk *DestinationKeys) PrivateKeyFile() ([]byte, error) {
	destBytes, err := dk.destination.Bytes()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to serialize destination")
	}

	sigPriv, ok := dk.signingPrivKey.(interface{ Bytes() []byte })
	if !ok {
		return nil, oops.Errorf("signing private key does not support Bytes()")
	}
	sigPrivBytes := sigPriv.Bytes()
	encPrivBytes := dk.encryptionPrivKey.Bytes()
	if len(encPrivBytes) != encryptionPrivateKeySize {
		return nil, oops.Errorf("unexpected encryption private key length %d", len(encPrivBytes))
	}

	buf := make([]byte, 0, len(destBytes)+len(encPrivBytes)+len(sigPrivBytes))
	buf = append(buf, destBytes...)
	buf = append(buf, encPrivBytes...)
	buf = append(buf, sigPrivBytes...)
	return buf, nil
}

// ParsePrivateKeyFile reads a private key file produced by PrivateKeyFile.
// The destination is rebuilt from the private keys and must match the
// stored destination byte for byte, so a file whose halves disagree is
// rejected.
func ParsePrivateKeyFile(data []byte) (*DestinationKeys, error) {
	stored, remainder, err := destination.ReadDestination(data)
	if err != nil {
		return nil, oops.Wrapf(err, "failed to read destination")
	}
	if len(remainder) <= encryptionPrivateKeySize {
		return nil, oops.Errorf("private key file truncated: %d bytes after destination", len(remainder))
	}

	encPrivKey, err := curve25519.NewCurve25519PrivateKey(remainder[:encryptionPrivateKeySize])
	if err != nil {
		return nil, oops.Wrapf(err, "failed to reconstruct encryption private key")
	}
	sigPrivKey, err := ed25519.NewEd25519PrivateKey(remainder[encryptionPrivateKeySize:])
	if err != nil {
		return nil, oops.Wrapf(err, "failed to reconstruct signing private key")
	}

	rebuilt, err := reconstructDestination(sigPrivKey, encPrivKey)
	if err != nil {
		return nil, err
	}

	storedBytes, err := stored.Bytes()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to serialize stored destination")
	}
	rebuiltBytes, err := rebuilt.Bytes()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to serialize rebuilt destination")
	}
	if !bytes.Equal(storedBytes, rebuiltBytes) {
		log.WithFields(logger.Fields{
			"at":     "ParsePrivateKeyFile",
			"reason": "destination does not belong to private keys",
		}).Warn("rejecting private key file")
		return nil, oops.Errorf("destination does not match private keys")
	}

	return &DestinationKeys{
		destination:       rebuilt,
		encryptionPrivKey: encPrivKey,
		signingPrivKey:    sigPrivKey,
	}, nil
}

func reconstructDestination(sigPrivKey ed25519.Ed25519PrivateKey, encPrivKey *curve25519.Curve25519PrivateKey) (*destination.Destination, error) {
	sigPubKey, err := sigPrivKey.Public()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to derive signing public key")
	}
	encPubKey, err := encPrivKey.Public()
	if err != nil {
		return nil, oops.Wrapf(err, "failed to derive encryption public key")
	}
	receivingPubKey, ok := encPubKey.(types.ReceivingPublicKey)
	if !ok {
		return nil, oops.Errorf("encryption public key does not implement ReceivingPublicKey")
	}
	return buildDestination(receivingPubKey, sigPubKey)
}
