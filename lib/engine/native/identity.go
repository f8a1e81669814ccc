package native

import (
	"github.com/go-i2p/i2ptunnelctl/lib/common/base64"
	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/i2ptunnelctl/lib/keys"
	"github.com/samber/oops"
)

// createDestination generates a fresh destination and writes its private
// key file into the stream passed as the only argument.
func (e *Engine) createDestination(client *clientInstance, args []any) (any, error) {
	fail := func(err error) (any, error) {
		return nil, engine.InvocationFailed(engine.OpInvoke, client.Class(), engine.MethodCreateDestination, err)
	}
	if len(args) != 1 {
		return fail(oops.Errorf("createDestination takes one output stream, got %d arguments", len(args)))
	}
	stream, ok := args[0].(*streamInstance)
	if !ok || stream.owner != e {
		return nil, &engine.Error{
			Op:     engine.OpInvoke,
			Class:  client.Class(),
			Method: engine.MethodCreateDestination,
			Kind:   engine.KindMarshalling,
			Err:    oops.Errorf("argument is not an output stream of this engine: %T", args[0]),
		}
	}

	dk, err := keys.NewDestinationKeys()
	if err != nil {
		return fail(err)
	}
	sk, err := dk.PrivateKeyFile()
	if err != nil {
		return fail(err)
	}
	stream.write(sk)
	return &destinationInstance{instance: newInstance(e, engine.ClassDestination), keys: dk}, nil
}

func (e *Engine) invokeDestination(dest *destinationInstance, method engine.Method) (any, error) {
	switch method {
	case engine.MethodGetSk:
		sk, err := dest.keys.PrivateKeyFile()
		if err != nil {
			return nil, engine.InvocationFailed(engine.OpInvoke, dest.Class(), method, err)
		}
		return sk, nil
	default:
		addr, err := dest.keys.Address()
		if err != nil {
			return nil, engine.InvocationFailed(engine.OpInvoke, dest.Class(), method, err)
		}
		return addr, nil
	}
}

func encode(args []any) (any, error) {
	if len(args) != 1 {
		return nil, engine.InvocationFailed(engine.OpInvokeStatic, engine.ClassBase64, engine.MethodEncode, oops.Errorf("encode takes one argument"))
	}
	raw, err := engine.AsBytes(args[0])
	if err != nil {
		return nil, err
	}
	return base64.EncodeToString(raw), nil
}

func decode(args []any) (any, error) {
	if len(args) != 1 {
		return nil, engine.InvocationFailed(engine.OpInvokeStatic, engine.ClassBase64, engine.MethodDecode, oops.Errorf("decode takes one argument"))
	}
	text, err := engine.AsString(args[0])
	if err != nil {
		return nil, err
	}
	raw, err := base64.DecodeString(text)
	if err != nil {
		return nil, engine.InvocationFailed(engine.OpInvokeStatic, engine.ClassBase64, engine.MethodDecode, err)
	}
	return raw, nil
}
