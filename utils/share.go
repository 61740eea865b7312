package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// ShareTokenBytes is the entropy of a share token before hex encoding.
const ShareTokenBytes = 32

// GenShareToken returns a 64-char lowercase hex token from the OS CSPRNG.
func GenShareToken() (string, error) {
	buf := make([]byte, ShareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
