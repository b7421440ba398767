package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// inspect prints the PBES2 parameters of an encrypted key file as JSON.
// No passphrase is needed.
func inspect(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newError(KindIO, "inspect", err)
	}

	params, _, err := decodeEncryptedPEM(data)
	if err != nil {
		return newError(KindDecrypt, "inspect", fmt.Errorf("%s: %w", path, err))
	}

	out, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return newError(KindEncode, "inspect", err)
	}
	out = append(out, '\n')
	if _, err := w.Write(out); err != nil {
		return newError(KindIO, "inspect", err)
	}
	return nil
}
