package scratchpad

import "encoding/base64"

// decryptLine reverses encryptLine: base64-decode then XOR with the same
// repeating secret. This is documented obfuscation, not cryptographic
// protection, and exists so a human or tool reading an "encrypted" scratchpad
// can recover the original text given the configured secret.
func decryptLine(line, secret string) (string, error) {
	if secret == "" {
		return line, nil
	}
	buf, err := base64.StdEncoding.DecodeString(line)
	if err != nil {
		return "", err
	}
	key := []byte(secret)
	for i := range buf {
		buf[i] ^= key[i%len(key)]
	}
	return string(buf), nil
}
