package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"mindcoach-service/internal/domain"
)

// UserRepository stores coach and player accounts.
type UserRepository interface {
	// Create assigns an id when u.ID is empty and fails with
	// domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// Claims is the JWT payload identifying a signed-in user.
type Claims struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// AuthService handles accounts and tokens.
type AuthService struct {
	users    UserRepository
	secret   []byte
	tokenTTL time.Duration
	hashCost int
	now      func() time.Time
}

func NewAuthService(users UserRepository, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// SetHashCost overrides the bcrypt cost (tests use bcrypt.MinCost).
func (s *AuthService) SetHashCost(cost int) {
	s.hashCost = cost
}

// SetClock is test-only for deterministic token expiry.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// Login checks credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: user}, nil
}

// IssueToken signs a token for user.
func (s *AuthService) IssueToken(user domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// Register creates an account with a hashed password.
func (s *AuthService) Register(ctx context.Context, user domain.User, password string) (domain.User, error) {
	user.Email = normalizeEmail(user.Email)
	if user.Email == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: email and password are required", domain.ErrInvalidUser)
	}
	if user.Role == "" {
		user.Role = domain.RolePlayer
	}
	if user.Role != domain.RolePlayer && user.Role != domain.RoleCoach {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidUser, user.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.users.Create(ctx, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ListPlayers returns all player accounts.
func (s *AuthService) ListPlayers(ctx context.Context) ([]domain.User, error) {
	return s.users.ListByRole(ctx, domain.RolePlayer)
}

// EnsureCoach creates the bootstrap coach account if it does not exist yet.
func (s *AuthService) EnsureCoach(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("lookup coach: %w", err)
	}
	_, err = s.Register(ctx, domain.User{Email: email, Name: "Coach", Role: domain.RoleCoach}, password)
	if errors.Is(err, domain.ErrUserExists) {
		return nil
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
