package main

// EncryptionParams describes a PBES2 parameter set (key derivation + cipher)
type EncryptionParams struct {
	Algorithm string    `json:"algorithm"` // always "pbes2"
	KDF       KDFParams `json:"kdf"`
	Cipher    string    `json:"cipher"` // "aes-128-cbc", "aes-192-cbc" or "aes-256-cbc"
	IV        []byte    `json:"iv"`
}

// KDFParams contains scrypt or PBKDF2 parameters for key derivation
type KDFParams struct {
	Algorithm string `json:"algorithm"` // "scrypt" or "pbkdf2"
	Salt      []byte `json:"salt"`

	// scrypt
	LogN        uint8  `json:"log_n,omitempty"`
	BlockSize   uint32 `json:"block_size,omitempty"`
	Parallelism uint32 `json:"parallelism,omitempty"`

	// pbkdf2
	Iterations uint32 `json:"iterations,omitempty"`
	PRF        string `json:"prf,omitempty"`

	// KeyLen is zero when the encoding omits it and the cipher implies it.
	KeyLen int `json:"keylen,omitempty"`
}

// Cost returns the scrypt CPU/memory cost N.
func (k KDFParams) Cost() int {
	return 1 << k.LogN
}
