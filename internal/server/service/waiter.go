package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// WaitTimeout is the maximum time a client can wait for notifications
	WaitTimeout = 25 * time.Second

	// WaitChannelBuffer size for notification channels
	WaitChannelBuffer = 1
)

// WaitRegistry manages long-polling clients waiting for session changes
type WaitRegistry struct {
	mu       sync.RWMutex
	waiters  map[string][]*WaitRequest // gameID → waiting clients
	timeout  time.Duration
	shutdown chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// WaitRequest represents a single client waiting for session updates
type WaitRequest struct {
	Version uint64        // Last version the client has seen
	Notify  chan struct{} // Buffered channel for notifications
	Timer   *time.Timer
	GameID  string
}

func NewWaitRegistry(timeout time.Duration) *WaitRegistry {
	if timeout <= 0 {
		timeout = WaitTimeout
	}
	return &WaitRegistry{
		waiters:  make(map[string][]*WaitRequest),
		timeout:  timeout,
		shutdown: make(chan struct{}),
	}
}

// RegisterWait registers a client to wait for a session to move past
// version. The returned channel fires on change, timeout or shutdown.
func (w *WaitRegistry) RegisterWait(ctx context.Context, gameID string, version uint64) <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	req := &WaitRequest{
		Version: version,
		Notify:  make(chan struct{}, WaitChannelBuffer),
		GameID:  gameID,
	}
	if w.closed {
		close(req.Notify)
		return req.Notify
	}

	req.Timer = time.AfterFunc(w.timeout, func() {
		w.handleTimeout(req)
	})

	w.waiters[gameID] = append(w.waiters[gameID], req)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			w.removeWaiter(gameID, req)
		case <-w.shutdown:
			req.Timer.Stop()
			select {
			case req.Notify <- struct{}{}:
			default:
			}
		}
	}()

	return req.Notify
}

// NotifyGame wakes every waiter on gameID whose known version is stale
func (w *WaitRegistry) NotifyGame(gameID string, version uint64) {
	w.mu.RLock()
	waitList := w.waiters[gameID]
	w.mu.RUnlock()

	for _, req := range waitList {
		if req.Version == version {
			continue
		}
		select {
		case req.Notify <- struct{}{}:
		default:
			// Already signalled
		}
	}
}

// RemoveGame wakes and drops all waiters for a game (called before removal)
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.mu.Lock()
	waitList := w.waiters[gameID]
	delete(w.waiters, gameID)
	w.mu.Unlock()

	for _, req := range waitList {
		req.Timer.Stop()
		select {
		case req.Notify <- struct{}{}:
		default:
		}
	}
}

// Waiting returns the number of registered waiters on gameID
func (w *WaitRegistry) Waiting(gameID string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.waiters[gameID])
}

// Shutdown wakes every waiter and waits for the watch goroutines to exit
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.shutdown)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out after %s", timeout)
	}
}

func (w *WaitRegistry) handleTimeout(req *WaitRequest) {
	select {
	case req.Notify <- struct{}{}:
	default:
	}
}

func (w *WaitRegistry) removeWaiter(gameID string, req *WaitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[gameID]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[gameID] = append(waitList[:i:i], waitList[i+1:]...)
			break
		}
	}

	if len(w.waiters[gameID]) == 0 {
		delete(w.waiters, gameID)
	}

	req.Timer.Stop()
}
