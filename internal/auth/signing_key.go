package auth

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

const signingKeyInfo = "academic-erp bearer token v1"

// DeriveSigningKey stretches the configured secret into a fixed-size HMAC key.
func DeriveSigningKey(secret string, size int) ([]byte, error) {
	if size <= 0 {
		size = sha256.Size
	}
	key := make([]byte, size)
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(signingKeyInfo))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}
