// Package identity generates tunnel identities through the engine.
package identity

import (
	"fmt"

	"github.com/go-i2p/i2ptunnelctl/lib/common/base32"
	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/i2ptunnelctl/lib/keys"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

// KeyPair is a tunnel identity: the private key file as I2P base64 text
// and the .b32.i2p address derived from the same engine identity.
//
// The only way to obtain a KeyPair is Generator.Generate, so the two
// halves always belong together.
type KeyPair struct {
	secret      string
	destination string
}

// Secret returns the private key file, base64 encoded with the I2P alphabet.
func (kp *KeyPair) Secret() string { return kp.secret }

// Destination returns the public .b32.i2p address.
func (kp *KeyPair) Destination() string { return kp.destination }

// String never includes the secret.
func (kp *KeyPair) String() string {
	return fmt.Sprintf("KeyPair{destination: %s, secret: [redacted]}", kp.destination)
}

// GoString keeps %#v from printing the secret either.
func (kp *KeyPair) GoString() string { return kp.String() }

// Generator produces KeyPairs on one shared engine.
type Generator struct {
	eng engine.Engine
}

// NewGenerator returns a Generator using eng.
func NewGenerator(eng engine.Engine) *Generator {
	return &Generator{eng: eng}
}

// Generate creates a fresh identity. Every step runs against the one
// destination created here; any failure aborts without a KeyPair.
func (g *Generator) Generate() (*KeyPair, error) {
	stream, err := g.eng.Construct(engine.ClassByteArrayOutputStream)
	if err != nil {
		return nil, err
	}
	v, err := g.eng.InvokeStatic(engine.ClassClientFactory, engine.MethodCreateClient)
	if err != nil {
		return nil, err
	}
	client, err := engine.AsInstance(v, engine.ClassClient)
	if err != nil {
		return nil, err
	}
	v, err = g.eng.Invoke(client, engine.MethodCreateDestination, stream)
	if err != nil {
		return nil, err
	}
	dest, err := engine.AsInstance(v, engine.ClassDestination)
	if err != nil {
		return nil, err
	}

	v, err = g.eng.Invoke(dest, engine.MethodGetSk)
	if err != nil {
		return nil, err
	}
	sk, err := engine.AsBytes(v)
	if err != nil {
		return nil, err
	}
	if len(sk) == 0 {
		return nil, engine.InvocationFailed(engine.OpInvoke, engine.ClassDestination, engine.MethodGetSk, oops.Errorf("empty private key"))
	}

	v, err = g.eng.InvokeStatic(engine.ClassBase64, engine.MethodEncode, sk)
	if err != nil {
		return nil, err
	}
	secret, err := engine.AsString(v)
	if err != nil {
		return nil, err
	}

	v, err = g.eng.Invoke(dest, engine.MethodToBase32)
	if err != nil {
		return nil, err
	}
	addr, err := engine.AsString(v)
	if err != nil {
		return nil, err
	}
	if !base32.IsAddress(addr) {
		return nil, &engine.Error{
			Op:     engine.OpConvert,
			Class:  engine.ClassDestination,
			Method: engine.MethodToBase32,
			Kind:   engine.KindMarshalling,
			Err:    oops.Errorf("not a %s address: %q", base32.AddressSuffix, addr),
		}
	}

	log.WithFields(logger.Fields{
		"at":          "identity.Generate",
		"destination": addr,
	}).Debug("generated identity")
	return &KeyPair{secret: secret, destination: addr}, nil
}

// Verify decodes kp's secret through the engine's own decoder and checks
// that the key file inside belongs to kp's destination.
func (g *Generator) Verify(kp *KeyPair) error {
	if kp == nil || kp.secret == "" {
		return oops.Errorf("empty key pair")
	}
	v, err := g.eng.InvokeStatic(engine.ClassBase64, engine.MethodDecode, kp.secret)
	if err != nil {
		return err
	}
	raw, err := engine.AsBytes(v)
	if err != nil {
		return err
	}
	dk, err := keys.ParsePrivateKeyFile(raw)
	if err != nil {
		return oops.Wrapf(err, "secret for %s is not a private key file", kp.destination)
	}
	addr, err := dk.Address()
	if err != nil {
		return err
	}
	if addr != kp.destination {
		return oops.Errorf("secret belongs to %s, not %s", addr, kp.destination)
	}
	return nil
}
