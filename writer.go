package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// keyFile is an encoded output waiting to be written
type keyFile struct {
	Path    string
	Profile string
	Data    []byte
}

// writeKeyFiles writes every file or none. Each file is staged to a temporary
// file in its target directory; targets are only replaced once all staging
// succeeded. Staging stops at the first failure.
func writeKeyFiles(files []keyFile, logger *logrus.Logger) error {
	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := stageFile(f.Path, f.Data)
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
		staged = append(staged, tmp)
		logger.WithFields(logrus.Fields{
			"path":    f.Path,
			"profile": f.Profile,
			"bytes":   len(f.Data),
		}).Debug("staged key file")
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			staged = staged[i:]
			cleanup()
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
		logger.WithField("path", f.Path).Info("wrote key file")
	}
	return nil
}

// stageFile writes data to a new 0600 temporary file next to path and
// returns the temporary file's name.
func stageFile(path string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	name := f.Name()

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
