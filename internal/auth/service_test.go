package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chatweb/chatweb-server/internal/store"
	"github.com/chatweb/chatweb-server/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return NewService(st, jwtConfig)
}

func adultBirthDate() time.Time {
	return time.Now().AddDate(-30, 0, 0)
}

func TestRegister_RejectsInvalidEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	for _, email := range []string{"", "not-an-email", "missing@tld", "@example.com"} {
		if _, _, err := svc.Register(ctx, email, "password123", "Alice", adultBirthDate()); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("email %q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc := newTestAuthService(t)

	if _, _, err := svc.Register(context.Background(), "alice@example.com", "12345", "Alice", adultBirthDate()); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRegister_RejectsBadName(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice@example.com", "password123", "", adultBirthDate()); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for empty name, got %v", err)
	}

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}
	if _, _, err := svc.Register(ctx, "alice@example.com", "password123", string(long), adultBirthDate()); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for long name, got %v", err)
	}
}

func TestRegister_RejectsUnderage(t *testing.T) {
	svc := newTestAuthService(t)

	seventeen := time.Now().AddDate(-18, 0, 1)
	if _, _, err := svc.Register(context.Background(), "kid@example.com", "password123", "Kid", seventeen); !errors.Is(err, ErrUnderage) {
		t.Fatalf("expected ErrUnderage, got %v", err)
	}
}

func TestRegister_AcceptsEighteenthBirthday(t *testing.T) {
	svc := newTestAuthService(t)

	exactly18 := time.Now().AddDate(-18, 0, 0)
	token, user, err := svc.Register(context.Background(), "teen@example.com", "password123", "Teen", exactly18)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if token == "" || user == nil {
		t.Fatal("expected token and user")
	}
}

func TestRegister_NormalizesEmailAndRejectsDuplicate(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, user, err := svc.Register(ctx, " Alice@Example.COM ", "password123", "Alice", adultBirthDate())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}

	if _, _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice Again", adultBirthDate()); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

// blindUserStore hides existing accounts from the pre-insert lookup so
// the unique constraint is what stops a duplicate registration, the way
// it does when two registrations race.
type blindUserStore struct {
	store.UserStore
}

func (s blindUserStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return nil, store.ErrNotFound
}

func TestRegister_DuplicateInsertMapsToUserExists(t *testing.T) {
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{Secret: []byte("test-secret"), Issuer: "test", Audience: "test", TTL: time.Hour}
	svc := NewService(blindUserStore{st}, jwtConfig)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", adultBirthDate()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice Again", adultBirthDate()); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists from constraint, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", adultBirthDate()); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, user, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || user.Name != "Alice" {
		t.Fatalf("unexpected login result: token=%q user=%+v", token, user)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", adultBirthDate())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != user.ID || claims.Name != "Alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.ValidateToken(token + "tampered"); err == nil {
		t.Fatal("expected tampered token to fail")
	}
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	cfg := &JWTConfig{Secret: []byte("shared-secret"), Issuer: "test", Audience: "test", TTL: -time.Minute}

	token, err := GenerateToken(cfg, 1, "Alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestValidateToken_RejectsWrongIssuer(t *testing.T) {
	secret := []byte("shared-secret")
	otherCfg := &JWTConfig{Secret: secret, Issuer: "other", Audience: "test", TTL: time.Hour}
	ourCfg := &JWTConfig{Secret: secret, Issuer: "test", Audience: "test", TTL: time.Hour}

	token, err := GenerateToken(otherCfg, 1, "Alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateToken(ourCfg, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestAuthenticate_LoadsAccount(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", adultBirthDate())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	loaded, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if loaded.ID != user.ID || loaded.Email != "alice@example.com" {
		t.Fatalf("unexpected account: %+v", loaded)
	}

	if _, err := svc.Authenticate(ctx, "garbage"); err == nil {
		t.Fatal("expected garbage token to fail")
	}
}
