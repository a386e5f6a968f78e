package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// AutoRefreshTick is the default interval between expiry checks.
const AutoRefreshTick = 30 * time.Second

type listenerEntry struct {
	id uint64
	fn Listener
}

// Subscription is returned by OnAuthStateChange.
type Subscription interface {
	// Unsubscribe removes the listener. It is safe to call more than once.
	Unsubscribe()
}

type subscription struct {
	c    *Client
	id   uint64
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.c.removeListener(s.id) })
}

// OnAuthStateChange registers fn for every subsequent session change.
func (c *Client) OnAuthStateChange(fn Listener) Subscription {
	c.lmu.Lock()
	defer c.lmu.Unlock()

	c.nextID++
	c.listeners = append(c.listeners, listenerEntry{id: c.nextID, fn: fn})
	return &subscription{c: c, id: c.nextID}
}

func (c *Client) removeListener(id uint64) {
	c.lmu.Lock()
	defer c.lmu.Unlock()

	for i, l := range c.listeners {
		if l.id == id {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return
		}
	}
}

func (c *Client) notify(event Event, session *Session) {
	c.lmu.Lock()
	listeners := make([]listenerEntry, len(c.listeners))
	copy(listeners, c.listeners)
	c.lmu.Unlock()

	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	for _, l := range listeners {
		l.fn(event, session)
	}
}

func (c *Client) currentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Session returns the session held in memory, without restoring or
// refreshing it.
func (c *Client) Session() *Session { return c.currentSession() }

// GetSession returns the current session, restoring it from storage on the
// first call and refreshing it when the access token has expired. The first
// call emits INITIAL_SESSION. A nil session with a nil error means signed out.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	session, initialized := c.session, c.initialized
	c.mu.Unlock()

	if !initialized {
		loaded, err := c.loadSession(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if !c.initialized {
			c.session, c.initialized = loaded, true
		}
		session = c.session
		c.mu.Unlock()

		c.notify(EventInitialSession, session)
	}

	if session == nil || !session.ExpiresWithin(c.now(), 0) {
		return session, nil
	}

	refreshed, err := c.refresh(ctx, session.RefreshToken)
	if errors.Is(err, ErrNoSession) {
		// signed out while the refresh was in flight
		return nil, nil
	}
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			c.log.Warn(ctx, "stored session could not be refreshed, discarding", "error", err)
			if cerr := c.clearSession(ctx); cerr != nil {
				c.log.Error(ctx, "discarding session failed", "error", cerr)
			}
		}
		return nil, fmt.Errorf("refreshing session: %w", err)
	}
	return refreshed, nil
}

func (c *Client) loadSession(ctx context.Context) (*Session, error) {
	if c.storage == nil {
		return nil, nil
	}

	raw, ok, err := c.storage.GetItem(ctx, c.storageKey)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil || session.AccessToken == "" {
		c.log.Warn(ctx, "stored session is unreadable, discarding", "key", c.storageKey)
		if rerr := c.storage.RemoveItem(ctx, c.storageKey); rerr != nil {
			c.log.Error(ctx, "removing unreadable session failed", "error", rerr)
		}
		return nil, nil
	}
	return &session, nil
}

func (c *Client) fillExpiry(s *Session) {
	if s.ExpiresAt != 0 {
		return
	}
	if s.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Unix() + s.ExpiresIn
		return
	}
	s.ExpiresAt = expiryFromToken(s.AccessToken)
}

// setSession persists s, makes it current and broadcasts event.
func (c *Client) setSession(ctx context.Context, s *Session, event Event) error {
	c.fillExpiry(s)
	_, err := c.commit(ctx, s, event, nil)
	return err
}

func (c *Client) clearSession(ctx context.Context) error {
	_, err := c.commit(ctx, nil, EventSignedOut, nil)
	return err
}

// commit stores s, or removes the stored session when s is nil, then makes
// it current and broadcasts event. With ifGen set, nothing happens unless
// the session is still at that generation; the result reports whether the
// commit took place.
func (c *Client) commit(ctx context.Context, s *Session, event Event, ifGen *uint64) (bool, error) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	if ifGen != nil {
		c.mu.Lock()
		stale := c.gen != *ifGen
		c.mu.Unlock()
		if stale {
			return false, nil
		}
	}

	if c.storage != nil {
		if s == nil {
			if err := c.storage.RemoveItem(ctx, c.storageKey); err != nil {
				return false, fmt.Errorf("removing session: %w", err)
			}
		} else {
			data, err := json.Marshal(s)
			if err != nil {
				return false, fmt.Errorf("encoding session: %w", err)
			}
			if err := c.storage.SetItem(ctx, c.storageKey, string(data)); err != nil {
				return false, fmt.Errorf("persisting session: %w", err)
			}
		}
	}

	c.mu.Lock()
	c.session, c.initialized = s, true
	c.gen++
	c.mu.Unlock()

	c.notify(event, s)
	return true, nil
}

// StartAutoRefresh refreshes the current session whenever it is about to
// expire. It blocks until ctx is done.
func (c *Client) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = AutoRefreshTick
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.refreshIfExpiring(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) refreshIfExpiring(ctx context.Context) {
	session := c.currentSession()
	if session == nil || session.RefreshToken == "" || !session.ExpiresWithin(c.now(), c.margin) {
		return
	}
	if _, err := c.refresh(ctx, session.RefreshToken); err != nil {
		c.log.Warn(ctx, "auto refresh failed", "error", err)
	}
}
