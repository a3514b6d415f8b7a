package lifecycle

import (
	"sync"
	"sync/atomic"
)

var (
	shuttingDown atomic.Bool

	hooksMu     sync.Mutex
	nextHookID  int
	shutdownFns []hook
	resumeFns   []hook
)

type hook struct {
	id int
	fn func()
}

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT is received.
// Health reports shutting-down while true. A false->true transition runs OnShutdown hooks
// and a true->false transition runs OnResume hooks, each in registration order.
func SetShuttingDown(v bool) {
	if shuttingDown.Swap(v) == v {
		return
	}
	hooksMu.Lock()
	src := resumeFns
	if v {
		src = shutdownFns
	}
	pending := make([]func(), 0, len(src))
	for _, h := range src {
		pending = append(pending, h.fn)
	}
	hooksMu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// IsShuttingDown returns true if the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// OnShutdown registers fn to run when the shutdown flag is set.
// The returned func unregisters it.
func OnShutdown(fn func()) (unregister func()) {
	return register(&shutdownFns, fn)
}

// OnResume registers fn to run when the shutdown flag is cleared (testing-mode reset).
// The returned func unregisters it.
func OnResume(fn func()) (unregister func()) {
	return register(&resumeFns, fn)
}

func register(list *[]hook, fn func()) func() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	nextHookID++
	id := nextHookID
	*list = append(*list, hook{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			hooksMu.Lock()
			defer hooksMu.Unlock()
			for i, h := range *list {
				if h.id == id {
					*list = append((*list)[:i:i], (*list)[i+1:]...)
					return
				}
			}
		})
	}
}

// ResetHooks drops all registered hooks. For tests only.
func ResetHooks() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	shutdownFns = nil
	resumeFns = nil
}
