package chain

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalletLockSerializesSameAddress(t *testing.T) {
	locks := NewWalletLock()
	var inFlight, maxInFlight int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		addr := "0xABCDEF"
		if i%2 == 0 {
			addr = "0xabcdef"
		}
		go func(addr string) {
			defer wg.Done()
			_ = locks.Do(addr, func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
						break
					}
				}
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}(addr)
	}
	wg.Wait()
	require.Equal(t, int32(1), maxInFlight)
}

func TestWalletLockReturnsError(t *testing.T) {
	locks := NewWalletLock()
	err := locks.Do("0x1", func() error { return ErrReverted })
	require.ErrorIs(t, err, ErrReverted)
}
