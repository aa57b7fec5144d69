package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/scanbill/pos-client/pkg/config"
	"github.com/scanbill/pos-client/pkg/enums"
	pkgerrors "github.com/scanbill/pos-client/pkg/errors"
	"github.com/scanbill/pos-client/pkg/logger"
	"github.com/scanbill/pos-client/pkg/notify"
	"github.com/scanbill/pos-client/pkg/security"
)

// Identity is the authenticated operator. It is owned exclusively by the
// Manager; other components read it through Current and never mutate it.
type Identity struct {
	ID           uuid.UUID
	Username     string
	Role         enums.Role
	StoreID      *uuid.UUID
	SecretDigest string
}

// LoginInput carries the backend login payload into the session store. The
// plaintext Secret is digested immediately and never retained.
type LoginInput struct {
	ID       uuid.UUID
	Username string
	Role     string
	StoreID  *uuid.UUID
	Secret   string
}

// Manager owns the session lifecycle: create on login, destroy on logout,
// reconstitute on process start. The identity is persisted as a signed JWT
// blob in the session state file so reloads within the session TTL keep the
// operator signed in.
type Manager struct {
	mu         sync.Mutex
	cfg        config.SessionConfig
	secretCfg  config.SecretConfig
	log        *logger.Logger
	notifier   notify.Notifier
	current    *Identity
	resetHooks []func()
}

func NewManager(cfg config.SessionConfig, secretCfg config.SecretConfig, log *logger.Logger, notifier notify.Notifier) (*Manager, error) {
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("session signing secret required")
	}
	if cfg.StateFile == "" {
		return nil, fmt.Errorf("session state file required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &Manager{
		cfg:       cfg,
		secretCfg: secretCfg,
		log:       log,
		notifier:  notifier,
	}, nil
}

// OnReset registers a hook invoked whenever an identity is torn down: on
// logout, and when a login replaces a live session. Components holding
// identity-scoped state (caches, gate satisfaction, drill-down position)
// register here.
func (m *Manager) OnReset(hook func()) {
	if hook == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetHooks = append(m.resetHooks, hook)
}

// Login stores the authenticated identity, persists it, and emits the
// welcome notification.
func (m *Manager) Login(ctx context.Context, input LoginInput) (*Identity, error) {
	role, err := enums.ParseRole(input.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown role")
	}
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity id required")
	}

	digest, err := security.HashSecret(input.Secret, m.secretCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "digest secret")
	}

	identity := &Identity{
		ID:           input.ID,
		Username:     input.Username,
		Role:         role,
		StoreID:      copyStoreID(input.StoreID),
		SecretDigest: digest,
	}

	m.mu.Lock()
	replacing := m.current != nil
	m.current = identity
	hooks := make([]func(), len(m.resetHooks))
	copy(hooks, m.resetHooks)
	m.mu.Unlock()

	// A login over a live session is a logout in disguise: the previous
	// identity's caches, gate satisfaction and drill-down position must not
	// leak into the new one.
	if replacing {
		for _, hook := range hooks {
			hook()
		}
	}

	if err := m.persist(identity); err != nil {
		m.log.Error(ctx, "persist session", err)
	}

	m.notifier.Notify(notify.Notification{
		Message:  fmt.Sprintf("Welcome back, %s", identity.Username),
		Severity: notify.SeveritySuccess,
	})
	m.log.Info(m.log.WithUserID(ctx, identity.ID.String()), "session created")

	cpy := *identity
	return &cpy, nil
}

// Logout destroys the session. It is idempotent and callable from any view.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	hadSession := m.current != nil
	m.current = nil
	hooks := make([]func(), len(m.resetHooks))
	copy(hooks, m.resetHooks)
	m.mu.Unlock()

	if err := os.Remove(m.cfg.StateFile); err != nil && !os.IsNotExist(err) {
		m.log.Error(ctx, "remove session state", err)
	}

	for _, hook := range hooks {
		hook()
	}

	m.notifier.Notify(notify.Notification{
		Message:  "Session Terminated",
		Severity: notify.SeverityInfo,
	})
	if hadSession {
		m.log.Info(ctx, "session destroyed")
	}
}

// Restore reconstitutes the identity from the persisted state file. An
// absent, expired, or tampered blob yields no identity and no error.
func (m *Manager) Restore(ctx context.Context) *Identity {
	raw, err := os.ReadFile(m.cfg.StateFile)
	if err != nil {
		return nil
	}

	identity, err := m.parseToken(string(raw))
	if err != nil {
		m.log.Warn(ctx, "discarding unusable session state")
		_ = os.Remove(m.cfg.StateFile)
		return nil
	}

	m.mu.Lock()
	m.current = identity
	m.mu.Unlock()

	cpy := *identity
	return &cpy
}

// Current returns a copy of the active identity, or nil.
func (m *Manager) Current() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	cpy := *m.current
	cpy.StoreID = copyStoreID(m.current.StoreID)
	return &cpy
}

type sessionClaims struct {
	Username     string `json:"username"`
	Role         string `json:"role"`
	StoreID      string `json:"store_id,omitempty"`
	SecretDigest string `json:"secret_digest"`
	jwt.RegisteredClaims
}

func (m *Manager) persist(identity *Identity) error {
	claims := sessionClaims{
		Username:     identity.Username,
		Role:         identity.Role.String(),
		SecretDigest: identity.SecretDigest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity.ID.String(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl := m.cfg.TTL(); ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	if identity.StoreID != nil {
		claims.StoreID = identity.StoreID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.SigningSecret))
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	if err := os.WriteFile(m.cfg.StateFile, []byte(signed), 0o600); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}

func (m *Manager) parseToken(raw string) (*Identity, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(m.cfg.SigningSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("parse subject: %w", err)
	}
	role, err := enums.ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		ID:           id,
		Username:     claims.Username,
		Role:         role,
		SecretDigest: claims.SecretDigest,
	}
	if claims.StoreID != "" {
		storeID, err := uuid.Parse(claims.StoreID)
		if err != nil {
			return nil, fmt.Errorf("parse store id: %w", err)
		}
		identity.StoreID = &storeID
	}
	return identity, nil
}

func copyStoreID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	cpy := *id
	return &cpy
}
