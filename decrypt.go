package main

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// decodeEncryptedPEM extracts the EncryptedPrivateKeyInfo parameters and
// ciphertext from PEM data.
func decodeEncryptedPEM(data []byte) (*EncryptionParams, []byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, nil, fmt.Errorf("no PEM block found (is it a valid key file?)")
	}
	if block.Type != EncryptedPrivateKeyLabel {
		return nil, nil, fmt.Errorf("unexpected PEM type %q, want %q", block.Type, EncryptedPrivateKeyLabel)
	}
	return parseEncryptedPrivateKeyInfo(block.Bytes)
}

// decryptPEM decrypts an ENCRYPTED PRIVATE KEY PEM block and returns the RSA
// key together with the parameters it was protected with.
func decryptPEM(data, passphrase []byte) (*rsa.PrivateKey, *EncryptionParams, error) {
	params, ciphertext, err := decodeEncryptedPEM(data)
	if err != nil {
		return nil, nil, err
	}

	key, err := deriveKey(passphrase, params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, nil, fmt.Errorf("invalid ciphertext length %d: %w", len(ciphertext), ErrDecryption)
	}

	plaintext := make([]byte, len(ciphertext))
	defer zeroBytes(plaintext)
	cipher.NewCBCDecrypter(block, params.IV).CryptBlocks(plaintext, ciphertext)

	unpadded, ok := pkcs7Unpad(plaintext, block.BlockSize())
	if !ok {
		return nil, nil, ErrDecryption
	}

	// A wrong passphrase can still produce valid padding by chance; the
	// inner structure must parse too.
	parsed, err := x509.ParsePKCS8PrivateKey(unpadded)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported private key type %T", parsed)
	}
	return rsaKey, params, nil
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, false
	}
	pad := data[len(data)-n:]
	for _, b := range pad {
		if subtle.ConstantTimeByteEq(b, byte(n)) != 1 {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
