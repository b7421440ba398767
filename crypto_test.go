package main

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

func TestNewOpenSSLParams(t *testing.T) {
	p := newOpenSSLParams()
	require.NoError(t, p.validate())

	assert.Equal(t, "pbes2", p.Algorithm)
	assert.Equal(t, KDFScrypt, p.KDF.Algorithm)
	assert.Equal(t, uint8(14), p.KDF.LogN)
	assert.Equal(t, 16384, p.KDF.Cost())
	assert.Equal(t, uint32(8), p.KDF.BlockSize)
	assert.Equal(t, uint32(1), p.KDF.Parallelism)
	assert.Equal(t, 32, p.KDF.KeyLen)
	assert.Equal(t, CipherAES256CBC, p.Cipher)
	assert.Len(t, p.KDF.Salt, 16)
	assert.Len(t, p.IV, 16)

	q := newOpenSSLParams()
	assert.NotEqual(t, p.KDF.Salt, q.KDF.Salt, "salt must be fresh")
	assert.NotEqual(t, p.IV, q.IV, "IV must be fresh")
}

func TestValidateParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *EncryptionParams)
	}{
		{"unknown cipher", func(p *EncryptionParams) { p.Cipher = "des-ede3-cbc" }},
		{"key length mismatch", func(p *EncryptionParams) { p.KDF.KeyLen = 16 }},
		{"short IV", func(p *EncryptionParams) { p.IV = p.IV[:8] }},
		{"empty salt", func(p *EncryptionParams) { p.KDF.Salt = nil }},
		{"zero cost", func(p *EncryptionParams) { p.KDF.LogN = 0 }},
		{"zero block size", func(p *EncryptionParams) { p.KDF.BlockSize = 0 }},
		{"unknown kdf", func(p *EncryptionParams) { p.KDF.Algorithm = "argon2id" }},
		{"pbkdf2 without iterations", func(p *EncryptionParams) {
			p.KDF.Algorithm = KDFPBKDF2
			p.KDF.PRF = PRFHMACWithSHA256
		}},
		{"pbkdf2 unknown prf", func(p *EncryptionParams) {
			p.KDF.Algorithm = KDFPBKDF2
			p.KDF.Iterations = 1000
			p.KDF.PRF = "hmacWithMD5"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newOpenSSLParams()
			tt.mutate(p)
			assert.Error(t, p.validate())
		})
	}
}

func TestDeriveKey(t *testing.T) {
	passphrase := []byte("password")

	t.Run("scrypt", func(t *testing.T) {
		p := newOpenSSLParams()
		got, err := deriveKey(passphrase, p)
		require.NoError(t, err)

		want, err := scrypt.Key(passphrase, p.KDF.Salt, 16384, 8, 1, 32)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("pbkdf2 with implied key length", func(t *testing.T) {
		p := &EncryptionParams{
			Algorithm: "pbes2",
			KDF: KDFParams{
				Algorithm:  KDFPBKDF2,
				Salt:       []byte("saltsalt"),
				Iterations: 1000,
				PRF:        PRFHMACWithSHA256,
			},
			Cipher: CipherAES128CBC,
			IV:     make([]byte, IVLen),
		}
		got, err := deriveKey(passphrase, p)
		require.NoError(t, err)
		assert.Equal(t, pbkdf2.Key(passphrase, []byte("saltsalt"), 1000, 16, sha256.New), got)
	})
}
