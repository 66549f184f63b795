package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager orchestrates cookie based sessions backed by Redis.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session data.
type Session struct {
	ID        string
	userID    string
	manager   *SessionManager
	stored    bool
	destroyed bool
}

type sessionPayload struct {
	UserID string `json:"user_auth"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load resolves the session referenced by the request cookie. Requests without a
// cookie, with a forged cookie or with an id the store no longer knows get a fresh
// anonymous session; the client-supplied id is never adopted.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	id, ok := sm.verify(cookie.Value)
	if !ok {
		return sm.newSession(), nil
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sm.newSession(), nil
		}
		return nil, fmt.Errorf("shared: load session: %w", err)
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("shared: decode session: %w", err)
	}

	sess := sm.newSession()
	sess.ID = id
	sess.userID = stored.UserID
	sess.stored = true
	return sess, nil
}

// Commit writes the cookie for a stored session, or clears it after Destroy.
// Anonymous sessions get no cookie.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if !sess.stored {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sm.sign(sess.ID),
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sm.ttl),
	})
	return nil
}

// UserID returns the authenticated user id, if any.
func (s *Session) UserID() (int64, bool) {
	if s.destroyed || s.userID == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s.userID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Establish binds the session to userID under a freshly issued id and persists it
// immediately. A previously stored id is removed so it cannot be replayed. On
// failure the session is left anonymous and Commit issues no cookie.
func (s *Session) Establish(ctx context.Context, userID int64) error {
	if s.manager == nil {
		return errors.New("shared: session has no manager")
	}
	if s.stored {
		if err := s.manager.client.Del(ctx, s.manager.redisKey(s.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("shared: rotate session: %w", err)
		}
		s.reset()
	}

	id := s.manager.generateSessionID()
	owner := strconv.FormatInt(userID, 10)
	if err := s.manager.store(ctx, id, owner); err != nil {
		s.reset()
		return err
	}
	s.ID = id
	s.userID = owner
	s.stored = true
	s.destroyed = false
	return nil
}

// Destroy removes the session from the store. The session reports no user
// afterwards and Commit clears the client cookie.
func (s *Session) Destroy(ctx context.Context) error {
	if s.stored && s.manager != nil {
		if err := s.manager.client.Del(ctx, s.manager.redisKey(s.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("shared: destroy session: %w", err)
		}
	}
	s.reset()
	s.destroyed = true
	return nil
}

func (s *Session) reset() {
	s.userID = ""
	s.stored = false
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:      sm.generateSessionID(),
		manager: sm,
	}
}

func (sm *SessionManager) store(ctx context.Context, id, userID string) error {
	data, err := json.Marshal(sessionPayload{UserID: userID})
	if err != nil {
		return err
	}
	if err := sm.client.Set(ctx, sm.redisKey(id), data, sm.ttl).Err(); err != nil {
		return fmt.Errorf("shared: save session: %w", err)
	}
	return nil
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}

// sign appends an HMAC of the id so tampered cookies are rejected before Redis is hit.
func (sm *SessionManager) sign(id string) string {
	return id + "." + sm.mac(id)
}

func (sm *SessionManager) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(sm.mac(id))) {
		return "", false
	}
	return id, true
}

func (sm *SessionManager) mac(id string) string {
	m := hmac.New(sha256.New, sm.secret)
	_, _ = m.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(m.Sum(nil))
}

func (sm *SessionManager) generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

type sessionContextKey struct{}

// ContextWithSession stores the request session in ctx.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the request session, or nil when the session
// middleware did not run.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
