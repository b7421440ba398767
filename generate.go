package main

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// generate creates one RSA key and writes it under both encryption profiles.
func generate(opts Options, logger *logrus.Logger) error {
	passphrase, err := resolvePassphrase(opts)
	if err != nil {
		return newError(KindUsage, "passphrase", err)
	}
	defer zeroBytes(passphrase)

	logger.WithField("bits", opts.Bits).Debug("generating RSA key")
	key, err := generateKey(opts.Bits)
	if err != nil {
		return newError(KindGenerate, "generate", err)
	}

	targets := []struct {
		path    string
		profile Profile
	}{
		{opts.DefaultParamsPath, DefaultProfile{}},
		{opts.OpenSSLParamsPath, OpenSSLProfile},
	}

	files := make([]keyFile, 0, len(targets))
	for _, t := range targets {
		data, err := t.profile.Encode(key, passphrase)
		if err != nil {
			return newError(KindEncode, t.profile.Name(), err)
		}
		files = append(files, keyFile{Path: t.path, Profile: t.profile.Name(), Data: data})
	}

	if err := writeKeyFiles(files, logger); err != nil {
		return newError(KindIO, "write", err)
	}

	if opts.Verify {
		if err := verifyKeyFiles(files, passphrase, key); err != nil {
			return err
		}
		logger.Info("verified key files")
	}
	return nil
}

// verifyKeyFiles reads each file back and checks it decrypts to key.
func verifyKeyFiles(files []keyFile, passphrase []byte, key *rsa.PrivateKey) error {
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return newError(KindIO, "verify", err)
		}
		got, _, err := decryptPEM(data, passphrase)
		if err != nil {
			return newError(KindDecrypt, "verify", fmt.Errorf("%s: %w", f.Path, err))
		}
		if !key.Equal(got) {
			return newError(KindDecrypt, "verify", fmt.Errorf("%s: decrypted key does not match generated key", f.Path))
		}
	}
	return nil
}
