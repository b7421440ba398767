package main

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

const (
	DefaultKeyBits = 4096
	MinKeyBits     = 2048
)

func generateKey(bits int) (*rsa.PrivateKey, error) {
	if bits < MinKeyBits {
		return nil, fmt.Errorf("key size %d is below the minimum of %d bits", bits, MinKeyBits)
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %d-bit RSA key: %w", bits, err)
	}
	return key, nil
}
