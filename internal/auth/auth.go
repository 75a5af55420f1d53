package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/sha3"

	"github.com/xtrntr/marketplace/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// UserStore persists registered users.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string, address models.Address) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Identity is the caller a valid token speaks for.
type Identity struct {
	UserID   int
	Username string
	Address  models.Address
}

// AuthService handles user authentication
type AuthService struct {
	Users  UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates a new auth service signing tokens with secret that stay valid for ttl
func NewAuthService(users UserStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{Users: users, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// AddressFor derives the marketplace address of a username: the last 20 bytes of its Keccak-256 hash.
func AddressFor(username string) models.Address {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(username))
	sum := h.Sum(nil)
	return models.Address("0x" + hex.EncodeToString(sum[12:]))
}

// Register creates a new user with hashed password
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	// Validate input
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}
	if len(username) > 50 {
		return nil, fmt.Errorf("username too long (max 50 characters)")
	}
	if len(password) > 72 {
		return nil, fmt.Errorf("password too long (max 72 characters)")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.Users.CreateUser(ctx, username, string(hashedPassword), AddressFor(username))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and generates a JWT
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"address":  string(user.Address),
		"exp":      s.now().Add(s.ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

// GetUserFromToken returns the identity a signed, unexpired token carries
func (s *AuthService) GetUserFromToken(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return Identity{}, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	address, ok := claims["address"].(string)
	if !ok || address == "" {
		return Identity{}, fmt.Errorf("%w: missing address", ErrInvalidToken)
	}
	username, _ := claims["username"].(string)
	return Identity{UserID: int(userID), Username: username, Address: models.Address(address)}, nil
}
