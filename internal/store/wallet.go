package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

var walletIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// ErrInvalidWalletID is returned for ids that are not safe file names.
var ErrInvalidWalletID = errors.New("invalid wallet id")

// WalletFiles stores exported wallet data as <dir>/<id>.json. A file is
// written once and never overwritten.
type WalletFiles struct {
	dir string
}

// NewWalletFiles creates the directory if needed.
func NewWalletFiles(dir string) (*WalletFiles, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create wallet directory: %w", err)
	}
	return &WalletFiles{dir: dir}, nil
}

func (w *WalletFiles) path(id string) (string, error) {
	if !walletIDPattern.MatchString(id) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidWalletID, id)
	}
	return filepath.Join(w.dir, id+".json"), nil
}

// SaveOnce writes data for id unless a file already exists. It reports
// whether it wrote.
func (w *WalletFiles) SaveOnce(id string, data []byte) (bool, error) {
	p, err := w.path(id)
	if err != nil {
		return false, err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create wallet file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return false, fmt.Errorf("write wallet file: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close wallet file: %w", err)
	}
	return true, nil
}

// Load returns the stored data for id, or nil if none exists.
func (w *WalletFiles) Load(id string) ([]byte, error) {
	p, err := w.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet file: %w", err)
	}
	return data, nil
}
