package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifequest/apperrors"
	"lifequest/models"
	"lifequest/token"
)

// memUserStore is an in-memory UserStore with the same duplicate semantics
// as the GORM implementation.
type memUserStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uint]models.User)}
}

func (s *memUserStore) FindByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		u := user
		return &u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *memUserStore) FindByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	return s.find(func(u models.User) bool {
		return u.Username == identifier || u.Email == identifier
	})
}

func (s *memUserStore) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if match(user) {
			u := user
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *memUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return apperrors.ErrDuplicateEmail
		}
		if existing.Username == user.Username {
			return apperrors.ErrDuplicateUsername
		}
	}
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = *user
	return nil
}

func (s *memUserStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *memUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// fakeMailer records verification links on a channel so tests can wait for
// the background send.
type fakeMailer struct {
	sent chan string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan string, 4)}
}

func (m *fakeMailer) SendVerificationEmail(_, link string) error {
	m.sent <- link
	return nil
}

func (m *fakeMailer) waitForLink(t *testing.T) string {
	t.Helper()
	select {
	case link := <-m.sent:
		return link
	case <-time.After(time.Second):
		t.Fatal("verification mail was never sent")
		return ""
	}
}

func newTestAuthService(t *testing.T) (*AuthService, *memUserStore, *fakeMailer, *token.Manager) {
	t.Helper()

	tokens, err := token.NewManager(token.Config{
		AccessSecret:  "access-secret-0123456789-0123456789",
		RefreshSecret: "refresh-secret-0123456789-0123456789",
		EmailSecret:   "email-secret-0123456789-0123456789",
		AccessTTL:     30 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		EmailTTL:      24 * time.Hour,
	})
	require.NoError(t, err)

	store := newMemUserStore()
	mailer := newFakeMailer()
	svc := NewAuthService(store, tokens, mailer, "http://localhost:8000")
	return svc, store, mailer, tokens
}

func verificationToken(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	tok := parsed.Query().Get("token")
	require.NotEmpty(t, tok)
	return tok
}

func TestRegisterVerifyLoginRefresh(t *testing.T) {
	t.Parallel()

	svc, _, mailer, tokens := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, user.IsVerified)
	assert.Equal(t, 1, user.Level)
	assert.NotEqual(t, "password123", user.Password)

	// Unverified accounts cannot log in.
	_, _, err = svc.Login(ctx, "alice", "password123")
	assert.ErrorIs(t, err, apperrors.ErrAccountNotActive)

	// Follow the mailed link.
	link := mailer.waitForLink(t)
	assert.True(t, strings.HasPrefix(link, "http://localhost:8000/api/auth/verify-email?token="))
	require.NoError(t, svc.VerifyEmail(ctx, verificationToken(t, link)))

	pair, loggedIn, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, user.ID, loggedIn.ID)

	// Access token subject is the immutable numeric ID.
	subject, err := tokens.Verify(token.KindAccess, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatUint(uint64(user.ID), 10), subject)

	// Login by email works too.
	_, _, err = svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	// Refresh yields a working access token for the same subject.
	access, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	refreshedSubject, err := tokens.Verify(token.KindAccess, access)
	require.NoError(t, err)
	assert.Equal(t, subject, refreshedSubject)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, store, mailer, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	mailer.waitForLink(t)

	_, err = svc.Register(ctx, "bob", "alice@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
	assert.Equal(t, 1, store.count(), "failed registration must not mutate the store")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	t.Parallel()

	svc, store, mailer, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	mailer.waitForLink(t)

	_, err = svc.Register(ctx, "alice", "other@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUsername)
	assert.Equal(t, 1, store.count())
}

func TestRegister_CollisionOnBothReportsEmail(t *testing.T) {
	t.Parallel()

	svc, _, mailer, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	mailer.waitForLink(t)

	// Email is checked first, so a request colliding on both fields
	// reports the email error.
	_, err = svc.Register(ctx, "alice", "alice@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
}

func TestRegister_OversizedPassword(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", strings.Repeat("a", 73))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 0, store.count())
}

func TestLogin_GenericFailure(t *testing.T) {
	t.Parallel()

	svc, _, mailer, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(ctx, verificationToken(t, mailer.waitForLink(t))))

	// Unknown identifier and wrong password are indistinguishable.
	_, _, unknownErr := svc.Login(ctx, "nobody", "password123")
	_, _, wrongPassErr := svc.Login(ctx, "alice", "wrong")

	assert.ErrorIs(t, unknownErr, apperrors.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPassErr, apperrors.ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongPassErr)
}

func TestVerifyEmail_Idempotent(t *testing.T) {
	t.Parallel()

	svc, _, mailer, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	tok := verificationToken(t, mailer.waitForLink(t))

	require.NoError(t, svc.VerifyEmail(ctx, tok))
	require.NoError(t, svc.VerifyEmail(ctx, tok), "second verification must succeed")
}

func TestVerifyEmail_BadToken(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestAuthService(t)

	err := svc.VerifyEmail(context.Background(), "broken.token.here")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestVerifyEmail_UnknownSubject(t *testing.T) {
	t.Parallel()

	svc, _, _, tokens := newTestAuthService(t)

	tok, err := tokens.Issue(token.KindEmail, "ghost@example.com")
	require.NoError(t, err)

	err = svc.VerifyEmail(context.Background(), tok)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc, _, mailer, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(ctx, verificationToken(t, mailer.waitForLink(t))))

	pair, _, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
