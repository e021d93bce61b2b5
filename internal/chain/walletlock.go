package chain

import (
	"strings"
	"sync"
)

// WalletLock serializes transaction submission per sender address so that
// nonce selection and broadcast never interleave for the same wallet.
type WalletLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWalletLock creates an empty lock table.
func NewWalletLock() *WalletLock {
	return &WalletLock{locks: make(map[string]*sync.Mutex)}
}

func (w *WalletLock) lockFor(addr string) *sync.Mutex {
	key := strings.ToLower(addr)
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.locks[key]
	if !ok {
		l = &sync.Mutex{}
		w.locks[key] = l
	}
	return l
}

// Do runs fn while holding the lock for addr.
func (w *WalletLock) Do(addr string, fn func() error) error {
	l := w.lockFor(addr)
	l.Lock()
	defer l.Unlock()
	return fn()
}
