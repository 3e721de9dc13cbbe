package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain"
)

// LockCoordinator hands out exclusive per-account mutation rights.
//
// Each account number maps to a single-slot semaphore. Entries are reference
// counted and dropped once no holder or waiter remains, so the table does not
// grow with the number of accounts ever touched.
type LockCoordinator struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
	timeout time.Duration
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// NewLockCoordinator creates a coordinator. A timeout <= 0 waits until the
// caller's context is done.
func NewLockCoordinator(timeout time.Duration) *LockCoordinator {
	return &LockCoordinator{
		entries: make(map[string]*lockEntry),
		timeout: timeout,
	}
}

// Handle is a scoped grant over a set of accounts.
type Handle struct {
	c       *LockCoordinator
	numbers []string
	once    sync.Once
}

// Numbers returns the locked account numbers in acquisition order.
func (h *Handle) Numbers() []string {
	return append([]string(nil), h.numbers...)
}

// Release gives up every lock held by the handle. It is safe to call more than once.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		for i := len(h.numbers) - 1; i >= 0; i-- {
			h.c.release(h.numbers[i])
		}
	})
}

// AcquireFor locks the given accounts. Duplicates are collapsed and the rest
// are acquired in lexicographic order regardless of argument order, so two
// callers locking the same pair can never wait on each other.
//
// If any lock cannot be taken before the timeout or ctx ends, the locks
// already taken are released and domain.ErrLockTimeout is returned.
func (c *LockCoordinator) AcquireFor(ctx context.Context, numbers ...string) (*Handle, error) {
	ordered := lockOrder(numbers)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	h := &Handle{c: c}
	for _, n := range ordered {
		if err := c.acquire(ctx, n); err != nil {
			h.Release()
			return nil, fmt.Errorf("%w: account %s: %v", domain.ErrLockTimeout, n, err)
		}
		h.numbers = append(h.numbers, n)
	}
	return h, nil
}

func (c *LockCoordinator) acquire(ctx context.Context, number string) error {
	c.mu.Lock()
	e, ok := c.entries[number]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		c.entries[number] = e
	}
	e.refs++
	c.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		c.unref(number, e)
		return ctx.Err()
	}
}

func (c *LockCoordinator) release(number string) {
	c.mu.Lock()
	e, ok := c.entries[number]
	c.mu.Unlock()
	if !ok {
		return
	}
	<-e.sem
	c.unref(number, e)
}

func (c *LockCoordinator) unref(number string, e *lockEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(c.entries, number)
	}
}

// held reports how many accounts currently have an entry. Used by tests.
func (c *LockCoordinator) held() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func lockOrder(numbers []string) []string {
	seen := make(map[string]struct{}, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
