package main

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"math/bits"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	oidPBES2  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}
	oidPBKDF2 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
	oidScrypt = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11591, 4, 11}

	oidHMACWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 7}
	oidHMACWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}
	oidHMACWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 11}

	oidAES128CBC = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 2}
	oidAES192CBC = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 22}
	oidAES256CBC = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 42}

	oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
)

var errMalformed = errors.New("malformed PKCS#8 structure")

type namedOID struct {
	name string
	oid  asn1.ObjectIdentifier
}

var cipherOIDs = []namedOID{
	{CipherAES128CBC, oidAES128CBC},
	{CipherAES192CBC, oidAES192CBC},
	{CipherAES256CBC, oidAES256CBC},
}

var prfOIDs = []namedOID{
	{PRFHMACWithSHA1, oidHMACWithSHA1},
	{PRFHMACWithSHA256, oidHMACWithSHA256},
	{PRFHMACWithSHA512, oidHMACWithSHA512},
}

// privateKeyInfo is a parsed, unencrypted PKCS#8 PrivateKeyInfo.
type privateKeyInfo struct {
	Version    int64
	Algorithm  asn1.ObjectIdentifier
	rawAlgID   []byte // full AlgorithmIdentifier element, parameters included
	PrivateKey []byte
	trailing   []byte // [0] attributes and [1] publicKey, kept verbatim
}

func parsePrivateKeyInfo(der []byte) (*privateKeyInfo, error) {
	var (
		input = cryptobyte.String(der)
		seq   cryptobyte.String
		algID cryptobyte.String
		info  privateKeyInfo
	)
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("private key info: %w", errMalformed)
	}
	if !seq.ReadASN1Integer(&info.Version) {
		return nil, fmt.Errorf("private key info version: %w", errMalformed)
	}
	if info.Version != 0 && info.Version != 1 {
		return nil, fmt.Errorf("unsupported private key info version %d", info.Version)
	}
	if !seq.ReadASN1Element(&algID, cryptobyte_asn1.SEQUENCE) {
		return nil, fmt.Errorf("private key algorithm: %w", errMalformed)
	}
	info.rawAlgID = append([]byte(nil), algID...)

	var alg cryptobyte.String
	if !algID.ReadASN1(&alg, cryptobyte_asn1.SEQUENCE) || !alg.ReadASN1ObjectIdentifier(&info.Algorithm) {
		return nil, fmt.Errorf("private key algorithm: %w", errMalformed)
	}
	if !seq.ReadASN1Bytes(&info.PrivateKey, cryptobyte_asn1.OCTET_STRING) {
		return nil, fmt.Errorf("private key octets: %w", errMalformed)
	}
	info.trailing = append([]byte(nil), seq...)
	return &info, nil
}

func (info *privateKeyInfo) marshal() ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(info.Version)
		b.AddBytes(info.rawAlgID)
		b.AddASN1OctetString(info.PrivateKey)
		b.AddBytes(info.trailing)
	})
	return b.Bytes()
}

// marshalEncryptedPrivateKeyInfo encodes an EncryptedPrivateKeyInfo with a
// PBES2 algorithm identifier built from params.
func marshalEncryptedPrivateKeyInfo(params *EncryptionParams, ciphertext []byte) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	cipherOID := lookupOID(cipherOIDs, params.Cipher)
	kdf := params.KDF

	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidPBES2)
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				// keyDerivationFunc
				b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
					switch kdf.Algorithm {
					case KDFScrypt:
						b.AddASN1ObjectIdentifier(oidScrypt)
						b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
							b.AddASN1OctetString(kdf.Salt)
							b.AddASN1Uint64(uint64(kdf.Cost()))
							b.AddASN1Uint64(uint64(kdf.BlockSize))
							b.AddASN1Uint64(uint64(kdf.Parallelism))
							if kdf.KeyLen != 0 {
								b.AddASN1Uint64(uint64(kdf.KeyLen))
							}
						})
					case KDFPBKDF2:
						b.AddASN1ObjectIdentifier(oidPBKDF2)
						b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
							b.AddASN1OctetString(kdf.Salt)
							b.AddASN1Uint64(uint64(kdf.Iterations))
							if kdf.KeyLen != 0 {
								b.AddASN1Uint64(uint64(kdf.KeyLen))
							}
							// hmacWithSHA1 is the DEFAULT and must be omitted
							if kdf.PRF != PRFHMACWithSHA1 {
								b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
									b.AddASN1ObjectIdentifier(lookupOID(prfOIDs, kdf.PRF))
									b.AddASN1NULL()
								})
							}
						})
					}
				})
				// encryptionScheme
				b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1ObjectIdentifier(cipherOID)
					b.AddASN1OctetString(params.IV)
				})
			})
		})
		b.AddASN1OctetString(ciphertext)
	})
	return b.Bytes()
}

// parseEncryptedPrivateKeyInfo decodes an EncryptedPrivateKeyInfo and returns
// its PBES2 parameters and the encrypted data.
func parseEncryptedPrivateKeyInfo(der []byte) (*EncryptionParams, []byte, error) {
	var (
		input      = cryptobyte.String(der)
		seq        cryptobyte.String
		algID      cryptobyte.String
		algOID     asn1.ObjectIdentifier
		pbes2      cryptobyte.String
		ciphertext []byte
	)
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, nil, fmt.Errorf("encrypted private key info: %w", errMalformed)
	}
	if !seq.ReadASN1(&algID, cryptobyte_asn1.SEQUENCE) ||
		!seq.ReadASN1Bytes(&ciphertext, cryptobyte_asn1.OCTET_STRING) || !seq.Empty() {
		return nil, nil, fmt.Errorf("encrypted private key info: %w", errMalformed)
	}
	if !algID.ReadASN1ObjectIdentifier(&algOID) {
		return nil, nil, fmt.Errorf("encryption algorithm: %w", errMalformed)
	}
	if !algOID.Equal(oidPBES2) {
		return nil, nil, fmt.Errorf("unsupported encryption algorithm: %s", algOID)
	}
	if !algID.ReadASN1(&pbes2, cryptobyte_asn1.SEQUENCE) {
		return nil, nil, fmt.Errorf("PBES2 parameters: %w", errMalformed)
	}

	params := &EncryptionParams{Algorithm: "pbes2"}
	if err := parseKDF(&pbes2, &params.KDF); err != nil {
		return nil, nil, err
	}

	var (
		scheme    cryptobyte.String
		cipherOID asn1.ObjectIdentifier
	)
	if !pbes2.ReadASN1(&scheme, cryptobyte_asn1.SEQUENCE) || !scheme.ReadASN1ObjectIdentifier(&cipherOID) {
		return nil, nil, fmt.Errorf("encryption scheme: %w", errMalformed)
	}
	params.Cipher = lookupName(cipherOIDs, cipherOID)
	if params.Cipher == "" {
		return nil, nil, fmt.Errorf("unsupported cipher: %s", cipherOID)
	}
	if !scheme.ReadASN1Bytes(&params.IV, cryptobyte_asn1.OCTET_STRING) {
		return nil, nil, fmt.Errorf("cipher IV: %w", errMalformed)
	}

	if err := params.validate(); err != nil {
		return nil, nil, err
	}
	return params, ciphertext, nil
}

func parseKDF(pbes2 *cryptobyte.String, out *KDFParams) error {
	var (
		kdf    cryptobyte.String
		kdfOID asn1.ObjectIdentifier
		p      cryptobyte.String
	)
	if !pbes2.ReadASN1(&kdf, cryptobyte_asn1.SEQUENCE) ||
		!kdf.ReadASN1ObjectIdentifier(&kdfOID) ||
		!kdf.ReadASN1(&p, cryptobyte_asn1.SEQUENCE) {
		return fmt.Errorf("key derivation function: %w", errMalformed)
	}
	if !p.ReadASN1Bytes(&out.Salt, cryptobyte_asn1.OCTET_STRING) {
		return fmt.Errorf("KDF salt: %w", errMalformed)
	}

	switch {
	case kdfOID.Equal(oidScrypt):
		out.Algorithm = KDFScrypt
		var cost uint64
		if !p.ReadASN1Integer(&cost) || !p.ReadASN1Integer(&out.BlockSize) || !p.ReadASN1Integer(&out.Parallelism) {
			return fmt.Errorf("scrypt parameters: %w", errMalformed)
		}
		if cost < 2 || cost&(cost-1) != 0 {
			return fmt.Errorf("scrypt cost %d is not a power of two", cost)
		}
		out.LogN = uint8(bits.TrailingZeros64(cost))
	case kdfOID.Equal(oidPBKDF2):
		out.Algorithm = KDFPBKDF2
		if !p.ReadASN1Integer(&out.Iterations) {
			return fmt.Errorf("PBKDF2 parameters: %w", errMalformed)
		}
		out.PRF = PRFHMACWithSHA1
	default:
		return fmt.Errorf("unsupported KDF: %s", kdfOID)
	}

	if p.PeekASN1Tag(cryptobyte_asn1.INTEGER) && !p.ReadASN1Integer(&out.KeyLen) {
		return fmt.Errorf("KDF key length: %w", errMalformed)
	}
	if out.Algorithm == KDFPBKDF2 && p.PeekASN1Tag(cryptobyte_asn1.SEQUENCE) {
		var (
			prf    cryptobyte.String
			prfOID asn1.ObjectIdentifier
		)
		if !p.ReadASN1(&prf, cryptobyte_asn1.SEQUENCE) || !prf.ReadASN1ObjectIdentifier(&prfOID) {
			return fmt.Errorf("PBKDF2 PRF: %w", errMalformed)
		}
		if out.PRF = lookupName(prfOIDs, prfOID); out.PRF == "" {
			return fmt.Errorf("unsupported PRF: %s", prfOID)
		}
	}
	if !p.Empty() {
		return fmt.Errorf("KDF parameters: %w", errMalformed)
	}
	return nil
}

func lookupOID(table []namedOID, name string) asn1.ObjectIdentifier {
	for _, e := range table {
		if e.name == name {
			return e.oid
		}
	}
	return nil
}

func lookupName(table []namedOID, oid asn1.ObjectIdentifier) string {
	for _, e := range table {
		if e.oid.Equal(oid) {
			return e.name
		}
	}
	return ""
}
