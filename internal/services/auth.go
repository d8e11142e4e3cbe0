package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vaccert/vaccination-server/internal/models"
	"go.uber.org/zap"
)

// DefaultTokenTTL is how long an issued bearer token stays valid
const DefaultTokenTTL = time.Hour

// AdminStore is the credential store used by AuthService
type AdminStore interface {
	GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
	CountAdmins(ctx context.Context) (int, error)
	CreateAdmin(ctx context.Context, username, passwordHash string) (*models.Admin, error)
}

// AdminClaims represents JWT claims for dashboard admins
type AdminClaims struct {
	AdminID  int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService verifies admin credentials and issues bearer tokens
type AuthService struct {
	admins    AdminStore
	hasher    *PasswordHasher
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
	log       *zap.Logger
	dummyHash string
}

// NewAuthService creates an auth service signing tokens with secret
func NewAuthService(admins AdminStore, hasher *PasswordHasher, secret string, ttl time.Duration, log *zap.Logger) (*AuthService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	// compared against when the username is unknown so both failures cost the same
	dummyHash, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}

	return &AuthService{
		admins:    admins,
		hasher:    hasher,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
		log:       log,
		dummyHash: dummyHash,
	}, nil
}

// Login checks username and password and returns a signed token
func (s *AuthService) Login(ctx context.Context, username, password string) (string, models.AdminSummary, error) {
	admin, err := s.admins.GetAdminByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		s.hasher.Compare(s.dummyHash, password)
		return "", models.AdminSummary{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.AdminSummary{}, fmt.Errorf("%w: lookup admin: %w", ErrPersistence, err)
	}

	match, err := s.hasher.Compare(admin.PasswordHash, password)
	if err != nil {
		s.log.Error("unusable password hash", zap.Int64("admin_id", admin.ID), zap.Error(err))
		return "", models.AdminSummary{}, ErrInvalidCredentials
	}
	if !match {
		return "", models.AdminSummary{}, ErrInvalidCredentials
	}

	summary := admin.Summary()
	token, err := s.IssueToken(summary)
	if err != nil {
		return "", models.AdminSummary{}, err
	}
	return token, summary, nil
}

// IssueToken signs a token for admin that expires after the configured TTL
func (s *AuthService) IssueToken(admin models.AdminSummary) (string, error) {
	now := s.now()
	claims := AdminClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a bearer token and returns the admin it was issued to
func (s *AuthService) Verify(tokenString string) (*AdminClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingCredential
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredential
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || claims.AdminID == 0 {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

// EnsureDefaultAdmin seeds one admin account when the credential store is
// empty. passwordHash, when set, is stored as is instead of hashing password.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, username, password, passwordHash string) error {
	count, err := s.admins.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	if passwordHash == "" {
		passwordHash, err = s.hasher.Hash(password)
		if err != nil {
			return err
		}
	}

	admin, err := s.admins.CreateAdmin(ctx, username, passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		// another instance seeded it first
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	s.log.Info("default admin created", zap.String("username", admin.Username))
	return nil
}
