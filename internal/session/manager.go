package session

import (
	"context"
	"net/http"
	"time"

	"trialbridge/platform/config"
	"trialbridge/platform/httpkit"
	"trialbridge/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderToken carries the session token for clients that do not use cookies.
const HeaderToken = "X-Session-Token"

// Issued describes a freshly started session.
type Issued struct {
	SessionID uuid.UUID `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Manager resolves the session of a request and starts new ones.
type Manager struct {
	signer   *Signer
	store    Store
	cookie   string
	secure   bool
	sameSite http.SameSite
	ttl      time.Duration
	log      *logger.Logger
}

// NewManager creates a session manager over store.
func NewManager(cfg config.SessionConfig, store Store, log *logger.Logger) *Manager {
	return &Manager{
		signer:   NewSigner(cfg.GetSessionSecret(), cfg.GetSessionTTL()),
		store:    store,
		cookie:   cfg.GetSessionCookieName(),
		secure:   cfg.GetSessionCookieSecure(),
		sameSite: cfg.GetSessionCookieSameSite(),
		ttl:      cfg.GetSessionTTL(),
		log:      log,
	}
}

// Store returns the state store shared by the session-scoped modules.
func (m *Manager) Store() Store {
	return m.store
}

// Middleware attaches the caller's session ID to the request. A missing,
// invalid or expired token starts a new session with empty state.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := m.resolve(c); ok {
			httpkit.SetSessionID(c, id)
			c.Next()
			return
		}

		issued, err := m.start(c)
		if err != nil {
			m.log.Error("failed to start session", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, httpkit.ErrorResponse{Error: "session unavailable"})
			return
		}
		m.log.WithContext(c.Request.Context()).Debug("session started", "session_id", issued.SessionID.String())
		c.Next()
	}
}

// Start begins a new session regardless of any presented token.
func (m *Manager) Start(c *gin.Context) (Issued, error) {
	return m.start(c)
}

// Clear discards every state document of the session.
func (m *Manager) Clear(ctx context.Context, id uuid.UUID) error {
	return m.store.Delete(ctx, id, KindIntake, KindBrowser)
}

func (m *Manager) resolve(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader(HeaderToken)
	if raw == "" {
		if cookie, err := c.Cookie(m.cookie); err == nil {
			raw = cookie
		}
	}
	if raw == "" {
		return uuid.Nil, false
	}

	id, err := m.signer.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (m *Manager) start(c *gin.Context) (Issued, error) {
	id := uuid.New()
	token, expiresAt, err := m.signer.Issue(id)
	if err != nil {
		return Issued{}, err
	}

	c.SetSameSite(m.sameSite)
	c.SetCookie(m.cookie, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
	c.Header(HeaderToken, token)
	httpkit.SetSessionID(c, id)

	return Issued{SessionID: id, Token: token, ExpiresAt: expiresAt}, nil
}
