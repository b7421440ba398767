package main

import (
	"crypto/aes"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/tink-crypto/tink-go/v2/subtle/random"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters used by `openssl pkcs8 -topk8 -scrypt`
	OpenSSLScryptLogN        = 14 // N = 16384
	OpenSSLScryptBlockSize   = 8
	OpenSSLScryptParallelism = 1
	AES256KeyLen             = 32 // 256 bits for AES-256
	SaltLen                  = 16
	IVLen                    = aes.BlockSize
)

const (
	CipherAES128CBC = "aes-128-cbc"
	CipherAES192CBC = "aes-192-cbc"
	CipherAES256CBC = "aes-256-cbc"

	KDFScrypt = "scrypt"
	KDFPBKDF2 = "pbkdf2"

	PRFHMACWithSHA1   = "hmacWithSHA1"
	PRFHMACWithSHA256 = "hmacWithSHA256"
	PRFHMACWithSHA512 = "hmacWithSHA512"
)

// cipherKeyLen returns the AES key size for a CBC cipher name.
func cipherKeyLen(name string) (int, error) {
	switch name {
	case CipherAES128CBC:
		return 16, nil
	case CipherAES192CBC:
		return 24, nil
	case CipherAES256CBC:
		return 32, nil
	}
	return 0, fmt.Errorf("unsupported cipher: %s", name)
}

func prfHash(name string) (func() hash.Hash, error) {
	switch name {
	case PRFHMACWithSHA1:
		return sha1.New, nil
	case PRFHMACWithSHA256:
		return sha256.New, nil
	case PRFHMACWithSHA512:
		return sha512.New, nil
	}
	return nil, fmt.Errorf("unsupported PRF: %s", name)
}

// newOpenSSLParams draws a fresh salt and IV and returns the parameter set
// matching OpenSSL's scrypt defaults.
func newOpenSSLParams() *EncryptionParams {
	return &EncryptionParams{
		Algorithm: "pbes2",
		KDF: KDFParams{
			Algorithm:   KDFScrypt,
			Salt:        random.GetRandomBytes(SaltLen),
			LogN:        OpenSSLScryptLogN,
			BlockSize:   OpenSSLScryptBlockSize,
			Parallelism: OpenSSLScryptParallelism,
			KeyLen:      AES256KeyLen,
		},
		Cipher: CipherAES256CBC,
		IV:     random.GetRandomBytes(IVLen),
	}
}

// validate checks that the parameters are internally consistent.
func (p *EncryptionParams) validate() error {
	keyLen, err := cipherKeyLen(p.Cipher)
	if err != nil {
		return err
	}
	if p.KDF.KeyLen != 0 && p.KDF.KeyLen != keyLen {
		return fmt.Errorf("derived key length %d does not match %s", p.KDF.KeyLen, p.Cipher)
	}
	if len(p.IV) != IVLen {
		return fmt.Errorf("invalid IV length %d", len(p.IV))
	}
	if len(p.KDF.Salt) == 0 {
		return fmt.Errorf("empty salt")
	}
	switch p.KDF.Algorithm {
	case KDFScrypt:
		if p.KDF.LogN == 0 || p.KDF.LogN > 30 {
			return fmt.Errorf("invalid scrypt cost exponent %d", p.KDF.LogN)
		}
		if p.KDF.BlockSize == 0 || p.KDF.Parallelism == 0 {
			return fmt.Errorf("invalid scrypt parameters r=%d p=%d", p.KDF.BlockSize, p.KDF.Parallelism)
		}
	case KDFPBKDF2:
		if p.KDF.Iterations == 0 {
			return fmt.Errorf("invalid PBKDF2 iteration count")
		}
		if _, err := prfHash(p.KDF.PRF); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported KDF: %s", p.KDF.Algorithm)
	}
	return nil
}

// deriveKey derives the cipher key from a passphrase using the KDF in params
func deriveKey(passphrase []byte, params *EncryptionParams) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	keyLen, _ := cipherKeyLen(params.Cipher)
	kdf := params.KDF

	switch kdf.Algorithm {
	case KDFScrypt:
		return scrypt.Key(passphrase, kdf.Salt, kdf.Cost(), int(kdf.BlockSize), int(kdf.Parallelism), keyLen)
	default:
		h, _ := prfHash(kdf.PRF)
		return pbkdf2.Key(passphrase, kdf.Salt, int(kdf.Iterations), keyLen, h), nil
	}
}
