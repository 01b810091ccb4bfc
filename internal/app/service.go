package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"lumen/api/internal/auth"
	"lumen/api/internal/authpw"
	"lumen/api/internal/config"
	"lumen/api/internal/email"
	"lumen/api/internal/enrich"
	"lumen/api/internal/journal"
	"lumen/api/internal/search"
	"lumen/api/internal/store"
	"lumen/api/internal/view"
)

// Session is the authenticated caller identity attached to a request.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

type userStore interface {
	GetUserByID(context.Context, string) (store.User, error)
	RecordConsent(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	Ping(ctx context.Context) error
}

// refreshStore holds hashed refresh tokens. Postgres and Redis both satisfy it.
type refreshStore interface {
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
}

type journalService interface {
	SubmitEntry(ctx context.Context, userID, mood, text string) (journal.SubmitResult, error)
	ListEntries(ctx context.Context, userID string) ([]store.Entry, error)
}

type enrichService interface {
	Enrich(ctx context.Context, mood, text string) (enrich.Result, error)
}

type searchService interface {
	Search(q search.Query) search.Response
}

type Service struct {
	cfg      config.Config
	store    userStore
	sessions refreshStore
	journal  journalService
	enricher enrichService
	search   searchService
	authpw   *authpw.Service
	mail     *email.Service
	views    *view.Registry
}

// Deps carries the optional collaborators. Nil fields disable the matching
// surface (enrichment, search, password auth, reset mail).
type Deps struct {
	Journal  *journal.Service
	Enricher *enrich.Service
	Search   *search.Service
	Auth     *authpw.Service
	Mail     *email.Service
}

// New builds a service whose refresh tokens live in Postgres.
func New(cfg config.Config, dataStore *store.PostgresStore, deps Deps) *Service {
	return newService(cfg, dataStore, dataStore, deps)
}

// NewWithSessionStore builds a service with a dedicated refresh-token store
// (Redis in production).
func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions refreshStore, deps Deps) *Service {
	return newService(cfg, dataStore, sessions, deps)
}

func newService(cfg config.Config, users userStore, sessions refreshStore, deps Deps) *Service {
	s := &Service{
		cfg:      cfg,
		store:    users,
		sessions: sessions,
		authpw:   deps.Auth,
		mail:     deps.Mail,
		views:    view.NewRegistry(cfg.AccessTTL),
	}
	if deps.Journal != nil {
		s.journal = deps.Journal
	}
	if deps.Enricher != nil {
		s.enricher = deps.Enricher
	}
	if deps.Search != nil {
		s.search = deps.Search
	}
	return s
}

// AuthPasswordService exposes the credential auth service, nil when not configured.
func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

// SMTPConfigured reports whether reset mail can actually be sent.
func (s *Service) SMTPConfigured() bool {
	return s.mail != nil && s.mail.IsConfigured()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CreateSession issues an access token plus refresh token for a signed-in user
// and registers the session's view router.
func (s *Service) CreateSession(ctx context.Context, user store.User) (Session, error) {
	session, err := s.issueSession(ctx, user)
	if err != nil {
		return Session{}, err
	}
	s.views.Attach(session.JTI)
	return session, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a fresh
// pair is issued. The new session's view flow restarts at the consent gate.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	owner, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	// The Redis backend only stores the user ID; resolve the full record.
	user, err := s.store.GetUserByID(ctx, owner.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := newID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := newID("rft") + newID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		Email:        user.Email,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		UserName:  user.DisplayName,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Logout revokes the access token's JTI, the refresh token, and drops the
// session's view router. All steps are best-effort.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
		s.views.Detach(session.JTI)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// ViewState reports the session's current screen.
func (s *Service) ViewState(session Session) view.Screen {
	return s.views.Lookup(session.JTI).Current()
}

// AcceptConsent records the acceptance durably, then advances the view flow.
// The audit write happens first: a consent we could not record does not open
// the journal.
func (s *Service) AcceptConsent(ctx context.Context, session Session) (view.Screen, error) {
	if err := s.store.RecordConsent(ctx, session.UserID); err != nil {
		return "", domainError(503, "PERSISTENCE_ERROR", "Could not record your consent. Please try again.", nil)
	}
	screen := s.views.Mutate(session.JTI, func(r *view.Router) {
		r.AcceptConsent()
	})
	return screen, nil
}

func (s *Service) TriggerCrisis(session Session) view.Screen {
	return s.views.Mutate(session.JTI, func(r *view.Router) {
		r.TriggerCrisis()
	})
}

func (s *Service) DismissCrisis(session Session) view.Screen {
	return s.views.Mutate(session.JTI, func(r *view.Router) {
		r.DismissCrisis()
	})
}

func (s *Service) SubmitEntry(ctx context.Context, session Session, mood, text string) (journal.SubmitResult, error) {
	return s.journal.SubmitEntry(ctx, session.UserID, mood, text)
}

func (s *Service) ListEntries(ctx context.Context, session Session) ([]store.Entry, error) {
	return s.journal.ListEntries(ctx, session.UserID)
}

// Enrich runs the generative gateway directly, without persisting anything.
func (s *Service) Enrich(ctx context.Context, mood, text string) (enrich.Result, error) {
	if s.enricher == nil {
		return enrich.Result{}, domainError(503, "ENRICHMENT_UNAVAILABLE", "Enrichment is not configured", nil)
	}
	return s.enricher.Enrich(ctx, mood, text)
}

// Search queries the caller's own entries. Without a search backend the
// response is empty rather than an error.
func (s *Service) Search(session Session, text, mood string, limit, offset int) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}
	}
	return s.search.Search(search.Query{
		Text:       text,
		UserID:     session.UserID,
		FilterMood: mood,
		Limit:      limit,
		Offset:     offset,
	})
}

// RequestPasswordReset hands off to the auth service and mails the link when
// SMTP is configured. The returned token is surfaced to the HTTP layer only
// for the dev bypass.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) (string, error) {
	if s.authpw == nil {
		return "", domainError(503, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
	}
	token, err := s.authpw.RequestPasswordReset(ctx, emailAddr)
	if err != nil {
		return "", err
	}
	if token != "" && s.SMTPConfigured() {
		resetURL := s.cfg.ResetBaseURL + "?token=" + token
		userName := strings.SplitN(emailAddr, "@", 2)[0]
		if err := s.mail.SendPasswordResetEmail(emailAddr, userName, resetURL); err != nil {
			log.Printf("app: password reset mail to %s failed: %v", emailAddr, err)
		}
	}
	return token, nil
}

// wellnessPrompts rotate daily on /api/prompt.
var wellnessPrompts = []string{
	"What is one small thing that made you smile today?",
	"Describe a moment this week when you felt calm.",
	"What would you tell a friend who felt the way you do right now?",
	"Write about something you are looking forward to.",
	"What is one thing you did today that you are proud of?",
	"Describe a place where you feel completely at ease.",
	"What is a worry you could set down, just for today?",
	"Who is someone that makes you feel supported? What would you thank them for?",
	"What does a good day look like for you?",
	"Write about a challenge you got through and what it taught you.",
	"What is one kind thing you could do for yourself tomorrow?",
	"Describe how you are feeling right now without judging it.",
	"What song, book, or picture matches your mood today?",
	"If your mood were weather, what would the forecast be?",
}

// PromptOfDay returns the day's wellness prompt. Deterministic per UTC date.
func (s *Service) PromptOfDay() string {
	day := time.Now().UTC().YearDay()
	return wellnessPrompts[day%len(wellnessPrompts)]
}

func newID(prefix string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	if prefix == "" {
		return hex.EncodeToString(buf)
	}
	return prefix + "_" + hex.EncodeToString(buf)
}
