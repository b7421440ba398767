package main

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"syscall"

	"golang.org/x/term"
)

// zeroBytes overwrites a byte slice with zeros
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// resolvePassphrase picks the passphrase for this run: an interactive prompt
// when requested, then the environment, then the built-in placeholder.
func resolvePassphrase(opts Options) ([]byte, error) {
	var (
		passphrase []byte
		err        error
	)
	switch {
	case opts.Prompt:
		passphrase, err = getPassphraseWithConfirm("Enter passphrase: ", "Confirm passphrase: ")
		if err != nil {
			return nil, err
		}
	case os.Getenv(PassphraseEnvVar) != "":
		passphrase = []byte(os.Getenv(PassphraseEnvVar))
	default:
		passphrase = []byte(DefaultPassphrase)
	}

	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	return passphrase, nil
}

func getPassphraseWithConfirm(prompt, confirmPrompt string) ([]byte, error) {
	passphrase, err := readPassword(prompt)
	if err != nil {
		return nil, err
	}

	confirm, err := readPassword(confirmPrompt)
	if err != nil {
		zeroBytes(passphrase)
		return nil, err
	}

	if !bytes.Equal(passphrase, confirm) {
		zeroBytes(passphrase)
		zeroBytes(confirm)
		return nil, fmt.Errorf("passphrases do not match")
	}

	zeroBytes(confirm)
	return passphrase, nil
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	var passphrase []byte
	var err error

	if term.IsTerminal(int(syscall.Stdin)) {
		passphrase, err = term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
	} else {
		// STDIN is not a terminal (piped), try to read from /dev/tty
		tty, ttyErr := os.Open("/dev/tty")
		if ttyErr != nil {
			if runtime.GOOS == "windows" {
				return nil, fmt.Errorf("passphrase must be set via %s environment variable when STDIN is piped", PassphraseEnvVar)
			}
			return nil, fmt.Errorf("cannot read passphrase: STDIN is piped and /dev/tty is not available. Set %s environment variable", PassphraseEnvVar)
		}
		defer tty.Close()

		passphrase, err = term.ReadPassword(int(tty.Fd()))
		fmt.Fprintln(os.Stderr)
	}

	if err != nil {
		return nil, err
	}

	return passphrase, nil
}
