// internal/adapters/out/db/webhookevent_repository_pg_test.go
package db

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingCloser struct{ calls int32 }

func (c *countingCloser) Close() error {
	atomic.AddInt32(&c.calls, 1)
	return nil
}

func TestStopFunc_ConcurrentCallsCloseOnce(t *testing.T) {
	done := make(chan struct{})
	closer := &countingCloser{}
	stop := stopFunc(done, closer)

	const callers = 16
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			stop()
		}()
	}
	wg.Wait()

	select {
	case <-done:
	default:
		t.Fatal("done channel was not closed")
	}
	assert.Equal(t, int32(callers), atomic.LoadInt32(&closer.calls))
}
