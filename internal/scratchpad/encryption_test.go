package scratchpad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptLine_RoundTrip(t *testing.T) {
	line := "[agent • now • INFO] hello world\n"
	secret := "topsecret"

	encrypted := encryptLine(line, secret)
	assert.NotEqual(t, line, encrypted)

	decrypted, err := decryptLine(encrypted[:len(encrypted)-1], secret)
	require.NoError(t, err)
	assert.Equal(t, line, decrypted)
}

func TestEncryptLine_NoSecretIsPassthrough(t *testing.T) {
	line := "plain text\n"
	assert.Equal(t, line, encryptLine(line, ""))
}
