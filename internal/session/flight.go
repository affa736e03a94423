package session

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// flights collapses duplicate oracle-backed operations per key and remembers
// which keys are running so states like "generating" can be derived.
type flights struct {
	group singleflight.Group

	mu      sync.Mutex
	running map[string]int
}

func newFlights() *flights {
	return &flights{running: make(map[string]int)}
}

func generateKey(id string) string { return "generate:" + id }
func finalizeKey(id string) string { return "finalize:" + id }
func submitKey(id string, q int) string {
	return fmt.Sprintf("submit:%s:%d", id, q)
}

// do runs fn once per key among concurrent callers. The shared work runs on a
// context detached from the first caller's cancellation; each caller stops
// waiting when its own ctx ends.
func (f *flights) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	work := context.WithoutCancel(ctx)
	f.enter(key)
	ch := f.group.DoChan(key, func() (any, error) {
		return fn(work)
	})
	defer f.leave(key)

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *flights) enter(key string) {
	f.mu.Lock()
	f.running[key]++
	f.mu.Unlock()
}

func (f *flights) leave(key string) {
	f.mu.Lock()
	if f.running[key] <= 1 {
		delete(f.running, key)
	} else {
		f.running[key]--
	}
	f.mu.Unlock()
}

// Running reports whether any caller is currently waiting on key.
func (f *flights) Running(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[key] > 0
}
