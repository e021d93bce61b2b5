package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestWalletFilesSaveOnce(t *testing.T) {
	w, err := NewWalletFiles(filepath.Join(t.TempDir(), "wallet"))
	if err != nil {
		t.Fatalf("NewWalletFiles: %v", err)
	}

	wrote, err := w.SaveOnce("agent", []byte(`{"address":"0x1"}`))
	if err != nil || !wrote {
		t.Fatalf("first SaveOnce = %v, %v; want true, nil", wrote, err)
	}
	wrote, err = w.SaveOnce("agent", []byte(`{"address":"0x2"}`))
	if err != nil || wrote {
		t.Fatalf("second SaveOnce = %v, %v; want false, nil", wrote, err)
	}

	data, err := w.Load("agent")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != `{"address":"0x1"}` {
		t.Fatalf("existing export was overwritten: %s", data)
	}
}

func TestWalletFilesLoadMissing(t *testing.T) {
	w, err := NewWalletFiles(t.TempDir())
	if err != nil {
		t.Fatalf("NewWalletFiles: %v", err)
	}
	data, err := w.Load("nobody")
	if err != nil || data != nil {
		t.Fatalf("Load missing = %q, %v; want nil, nil", data, err)
	}
}

func TestWalletFilesRejectsUnsafeID(t *testing.T) {
	w, err := NewWalletFiles(t.TempDir())
	if err != nil {
		t.Fatalf("NewWalletFiles: %v", err)
	}
	for _, id := range []string{"", "../escape", "a/b", ".."} {
		if _, err := w.SaveOnce(id, []byte("x")); !errors.Is(err, ErrInvalidWalletID) {
			t.Errorf("SaveOnce(%q) error = %v, want ErrInvalidWalletID", id, err)
		}
	}
}
