package main

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"github.com/youmark/pkcs8"
)

// Profile selects how a private key is wrapped in an encrypted PKCS#8 file.
type Profile interface {
	Name() string
	// Encode returns the PEM-encoded EncryptedPrivateKeyInfo for key.
	Encode(key *rsa.PrivateKey, passphrase []byte) ([]byte, error)
}

// DefaultProfile leaves the choice of KDF and cipher to the PKCS#8 library.
type DefaultProfile struct{}

func (DefaultProfile) Name() string { return "library-default" }

func (DefaultProfile) Encode(key *rsa.PrivateKey, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		// the library silently writes an unencrypted key for an empty password
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	der, err := pkcs8.MarshalPrivateKey(key, passphrase, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}
	return encodePEM(der), nil
}

// ParamsProfile encrypts under an explicit parameter set. NewParams is called
// once per encoding so salt and IV are never reused.
type ParamsProfile struct {
	ProfileName string
	NewParams   func() *EncryptionParams
}

// OpenSSLProfile matches the defaults of `openssl pkcs8 -topk8 -scrypt`:
// scrypt N=2^14, r=8, p=1 and AES-256-CBC.
var OpenSSLProfile = ParamsProfile{
	ProfileName: "openssl-scrypt",
	NewParams:   newOpenSSLParams,
}

func (p ParamsProfile) Name() string { return p.ProfileName }

func (p ParamsProfile) Encode(key *rsa.PrivateKey, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	params := p.NewParams()

	plain, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	defer zeroBytes(plain)

	info, err := parsePrivateKeyInfo(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key info: %w", err)
	}
	defer zeroBytes(info.PrivateKey)
	if !info.Algorithm.Equal(oidRSAEncryption) {
		return nil, fmt.Errorf("unexpected private key algorithm %s", info.Algorithm)
	}

	der, err := encryptPrivateKeyInfo(info, passphrase, params)
	if err != nil {
		return nil, err
	}
	return encodePEM(der), nil
}
