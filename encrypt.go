package main

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/pem"
	"fmt"
)

// EncryptedPrivateKeyLabel is the PEM type of PKCS#8 EncryptedPrivateKeyInfo
const EncryptedPrivateKeyLabel = "ENCRYPTED PRIVATE KEY"

// encryptPrivateKeyInfo encrypts a PrivateKeyInfo under params and returns
// the DER of the resulting EncryptedPrivateKeyInfo.
func encryptPrivateKeyInfo(info *privateKeyInfo, passphrase []byte, params *EncryptionParams) ([]byte, error) {
	plaintext, err := info.marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key info: %w", err)
	}
	defer zeroBytes(plaintext)

	key, err := deriveKey(passphrase, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	defer zeroBytes(padded)

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, params.IV).CryptBlocks(ciphertext, padded)

	der, err := marshalEncryptedPrivateKeyInfo(params, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to encode encrypted private key info: %w", err)
	}
	return der, nil
}

// encodePEM wraps DER in an ENCRYPTED PRIVATE KEY block with LF line endings
func encodePEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  EncryptedPrivateKeyLabel,
		Bytes: der,
	})
}

// pkcs7Pad always appends between 1 and blockSize bytes.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}
