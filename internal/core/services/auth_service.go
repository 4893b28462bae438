package services

import (
	"context"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
)

// Claims is the stable session token claim set.
type Claims struct {
	UserID   int64  `json:"userId"`
	DNI      string `json:"dni"`
	RoleID   int64  `json:"roleId"`
	RoleName string `json:"roleName"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepo   ports.UserRepository
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	tokenTTL   time.Duration
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(
	userRepo ports.UserRepository,
	privateKey *rsa.PrivateKey,
	publicKey *rsa.PublicKey,
	tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		privateKey: privateKey,
		publicKey:  publicKey,
		tokenTTL:   tokenTTL,
	}
}

// Login authenticates a DNI/password pair and issues a session token.
//
// An account without a password (patient created by administrative
// backfill) authenticates on DNI alone; a password supplied for such an
// account is ignored. This is the intended self-service bootstrap path,
// narrow by construction: only patients are ever created without a
// password, and completing registration closes it.
func (s *AuthService) Login(ctx context.Context, dni, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByDNI(ctx, dni)
	if err != nil {
		return "", nil, err
	}

	switch acct := user.Account.(type) {
	case domain.PendingAccount:
		// DNI-only bootstrap login.
	case domain.RegisteredAccount:
		if password == "" {
			return "", nil, domain.ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
			return "", nil, domain.ErrInvalidCredentials
		}
	default:
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken signs a fresh RS256 session token for the user.
func (s *AuthService) IssueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		DNI:      user.DNI,
		RoleID:   user.RoleID,
		RoleName: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.privateKey)
}

// VerifyToken decodes a session token into a principal. Expiry,
// structural decode failures and signature mismatches each surface as
// their own error; the HTTP layer maps all of them to 401.
func (s *AuthService) VerifyToken(tokenString string) (domain.Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.publicKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.Principal{}, domain.ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return domain.Principal{}, domain.ErrMalformedToken
		default:
			return domain.Principal{}, domain.ErrInvalidToken
		}
	}
	if !token.Valid {
		return domain.Principal{}, domain.ErrInvalidToken
	}

	role, err := domain.ParseRole(claims.RoleName)
	if err != nil {
		return domain.Principal{}, domain.ErrInvalidToken
	}
	return domain.Principal{
		UserID: claims.UserID,
		DNI:    claims.DNI,
		RoleID: claims.RoleID,
		Role:   role,
	}, nil
}
