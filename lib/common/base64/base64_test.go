package base64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeNotMangled(t *testing.T) {
	testInput := []byte("Glib jocks quiz nymph to vex dwarf.")

	decoded, err := DecodeString(EncodeToString(testInput))
	require.NoError(t, err)
	assert.Equal(t, testInput, decoded)
}

func TestAlphabetSubstitution(t *testing.T) {
	// 0xfb 0xff encodes to "+/8=" in the standard alphabet.
	encoded := EncodeToString([]byte{0xfb, 0xff})
	assert.Equal(t, "-~8=", encoded)

	_, err := DecodeString("+/8=")
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeString("not base64!")
	assert.Error(t, err)
}
