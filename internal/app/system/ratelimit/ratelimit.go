// internal/app/system/ratelimit/ratelimit.go

// Package ratelimit throttles the portal's credential endpoints (POST
// /login, /admin-login and /signup). Each submission is counted twice: once
// against the client IP, which slows a single host spraying many accounts,
// and once against the normalized email, which slows many hosts guessing
// one account's password. A successful sign-in clears that email's window.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/normalize"
)

// Default credential windows used by NewAuthLimiter.
const (
	IPAttempts     = 10
	IPWindow       = time.Minute
	EmailAttempts  = 5
	EmailWindow    = 5 * time.Minute
	ipDeniedMsg    = "Too many login attempts. Please wait a minute before trying again."
	emailDeniedMsg = "Too many login attempts for this account. Please wait a few minutes."
)

// Limiter counts attempts per key in fixed windows. AuthLimiter runs two,
// one keyed by client IP and one by email. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a new rate limiter that allows limit requests per duration
// for each key. Call Stop to end its cleanup goroutine.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow reports whether another request for key fits in the current window,
// counting it if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many requests are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || time.Now().After(w.expiresAt) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset clears the window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// AuthLimiter holds the per-IP and per-email credential windows. A nil
// AuthLimiter allows everything.
type AuthLimiter struct {
	ipLimiter    *Limiter
	emailLimiter *Limiter
}

// NewAuthLimiter uses the default windows: IPAttempts per IPWindow and
// EmailAttempts per EmailWindow.
func NewAuthLimiter() *AuthLimiter {
	return NewAuthLimiterWithConfig(IPAttempts, IPWindow, EmailAttempts, EmailWindow)
}

// NewAuthLimiterWithConfig creates a limiter with custom limits.
func NewAuthLimiterWithConfig(ipLimit int, ipDuration time.Duration, emailLimit int, emailDuration time.Duration) *AuthLimiter {
	return &AuthLimiter{
		ipLimiter:    New(ipLimit, ipDuration),
		emailLimiter: New(emailLimit, emailDuration),
	}
}

// Check counts one credential submission for email from r's client and
// reports whether it may proceed. The IP window is checked first; a
// request it blocks is not counted against the email. The returned
// message is safe to show on the login or signup form.
func (al *AuthLimiter) Check(r *http.Request, email string) (bool, string) {
	if al == nil {
		return true, ""
	}
	if !al.ipLimiter.Allow(ClientIP(r)) {
		return false, ipDeniedMsg
	}
	if key := emailKey(email); key != "" && !al.emailLimiter.Allow(key) {
		return false, emailDeniedMsg
	}
	return true, ""
}

// ResetEmail clears email's window after a successful sign-in.
func (al *AuthLimiter) ResetEmail(email string) {
	if al == nil {
		return
	}
	if key := emailKey(email); key != "" {
		al.emailLimiter.Reset(key)
	}
}

// Stop ends both cleanup goroutines.
func (al *AuthLimiter) Stop() {
	if al == nil {
		return
	}
	al.ipLimiter.Stop()
	al.emailLimiter.Stop()
}

// emailKey folds email the way identities store it, so "Dean@Campus.edu "
// and "dean@campus.edu" share a window.
func emailKey(email string) string {
	return normalize.Email(email)
}
