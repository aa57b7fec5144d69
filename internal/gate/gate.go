package gate

import (
	"context"
	"fmt"
	"sync"

	"github.com/scanbill/pos-client/pkg/enums"
	"github.com/scanbill/pos-client/pkg/logger"
	"github.com/scanbill/pos-client/pkg/notify"
	"github.com/scanbill/pos-client/pkg/security"
)

// DigestSource returns the current identity's secret digest, or false when
// no identity is active.
type DigestSource func() (string, bool)

// Gate is the single-use re-confirmation barrier in front of the admin
// surface. It holds at most one outstanding challenge; a failed attempt
// closes the challenge and the caller must re-request navigation to retry.
type Gate struct {
	mu        sync.Mutex
	log       *logger.Logger
	notifier  notify.Notifier
	digest    DigestSource
	verify    func(secret, encoded string) (bool, error)
	open      bool
	satisfied bool
	pending   *enums.View
}

func New(log *logger.Logger, notifier notify.Notifier, digest DigestSource) (*Gate, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if digest == nil {
		return nil, fmt.Errorf("digest source required")
	}
	return &Gate{
		log:      log,
		notifier: notifier,
		digest:   digest,
		verify:   security.VerifySecret,
	}, nil
}

// Satisfied reports whether the challenge has been passed since the last
// reset.
func (g *Gate) Satisfied() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.satisfied
}

// IsOpen reports whether a challenge is outstanding.
func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Require asks the gate whether navigating to target may proceed. When the
// gate is already satisfied it passes. Otherwise the challenge opens, the
// navigation is deferred, and Require returns false.
func (g *Gate) Require(target enums.View) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.satisfied {
		return true
	}
	tgt := target
	g.open = true
	g.pending = &tgt
	return false
}

// Challenge submits the operator's secret. On a match the gate closes
// satisfied and the deferred target is returned so the caller can complete
// the navigation. On a mismatch the challenge closes unsatisfied; the
// operator must re-trigger navigation to try again.
func (g *Gate) Challenge(ctx context.Context, secret string) (*enums.View, bool) {
	g.mu.Lock()
	if !g.open {
		g.mu.Unlock()
		return nil, false
	}
	pending := g.pending
	g.open = false
	g.pending = nil
	g.mu.Unlock()

	encoded, ok := g.digest()
	if !ok {
		g.log.Warn(ctx, "gate challenge without active identity")
		g.notifier.Notify(notify.Notification{Message: "Invalid Authorization", Severity: notify.SeverityError})
		return nil, false
	}

	match, err := g.verify(secret, encoded)
	if err != nil {
		g.log.Error(ctx, "verify gate secret", err)
	}
	if !match {
		g.notifier.Notify(notify.Notification{Message: "Invalid Authorization", Severity: notify.SeverityError})
		return nil, false
	}

	g.mu.Lock()
	g.satisfied = true
	g.mu.Unlock()

	g.notifier.Notify(notify.Notification{Message: "Identity Confirmed", Severity: notify.SeveritySuccess})
	return pending, true
}

// Cancel dismisses an outstanding challenge without completing navigation.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = false
	g.pending = nil
}

// Reset clears satisfaction and any outstanding challenge. Called on logout
// and on role change.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = false
	g.satisfied = false
	g.pending = nil
}
