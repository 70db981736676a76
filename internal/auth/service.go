package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/chatweb/chatweb-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when registering an already-used email.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidEmail is returned when the email doesn't look like one.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPassword is returned when the password is too short.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidName is returned when the name is empty or too long.
	ErrInvalidName = errors.New("invalid name")
	// ErrUnderage is returned when the account holder is under 18.
	ErrUnderage = errors.New("must be at least 18 years old")
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

const (
	minPasswordLen = 6
	maxNameLen     = 50
	minAgeYears    = 18
)

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new account and returns a JWT token plus the user.
func (s *Service) Register(ctx context.Context, email, password, name string, dateOfBirth time.Time) (string, *store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if !emailPattern.MatchString(email) {
		return "", nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return "", nil, ErrInvalidPassword
	}
	if name == "" || len(name) > maxNameLen {
		return "", nil, ErrInvalidName
	}
	if age(dateOfBirth, time.Now()) < minAgeYears {
		return "", nil, ErrUnderage
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", nil, ErrUserExists
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &store.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashedPassword,
		DateOfBirth:  dateOfBirth,
	})
	if err != nil {
		// A concurrent registration can win the race past the lookup
		// above; the unique constraint is the authority.
		if errors.Is(err, store.ErrDuplicate) {
			return "", nil, ErrUserExists
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Name)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user, nil
}

// Login validates credentials and returns a JWT token plus the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, *store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Name)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// Authenticate validates a token and loads the account behind it. Used
// by the WebSocket handshake, which needs the full identity snapshot.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*store.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", claims.UserID, err)
	}
	return user, nil
}

func age(dateOfBirth, now time.Time) int {
	years := now.Year() - dateOfBirth.Year()
	anniversary := dateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}
