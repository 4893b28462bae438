package services

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
)

const recoveryAudience = "password-recovery"

// RecoveryService handles the self-service password recovery flow. The
// token is a short-lived signed token whose id is tracked in the
// recovery store so it can be consumed exactly once; mail delivery is
// the job of whatever consumes the recovery.requested queue.
type RecoveryService struct {
	userRepo   ports.UserRepository
	tokens     ports.RecoveryTokenStore
	outbox     ports.OutboxRepository
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	tokenTTL   time.Duration
}

var _ ports.RecoveryService = (*RecoveryService)(nil)

func NewRecoveryService(
	userRepo ports.UserRepository,
	tokens ports.RecoveryTokenStore,
	outbox ports.OutboxRepository,
	privateKey *rsa.PrivateKey,
	publicKey *rsa.PublicKey,
	tokenTTL time.Duration,
) *RecoveryService {
	return &RecoveryService{
		userRepo:   userRepo,
		tokens:     tokens,
		outbox:     outbox,
		privateKey: privateKey,
		publicKey:  publicKey,
		tokenTTL:   tokenTTL,
	}
}

// Request mints a recovery token for the account behind the email and
// enqueues the mail event. An unknown email returns nil so the HTTP
// response cannot be used to probe which addresses are registered.
func (s *RecoveryService) Request(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	tokenID := uuid.NewString()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   user.DNI,
		Audience:  jwt.ClaimStrings{recoveryAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return err
	}

	if err := s.tokens.Save(ctx, tokenID, user.ID, s.tokenTTL); err != nil {
		return err
	}

	payload, err := json.Marshal(ports.RecoveryRequestedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Token:  token,
	})
	if err != nil {
		return err
	}
	return s.outbox.Enqueue(ctx, ports.EventRecoveryRequested, payload)
}

// Reset consumes a recovery token and stores the new password hash,
// promoting a pending account to registered.
func (s *RecoveryService) Reset(ctx context.Context, tokenString, newPassword string) error {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.publicKey, nil
	}, jwt.WithAudience(recoveryAudience))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return domain.ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return domain.ErrMalformedToken
		default:
			return domain.ErrInvalidToken
		}
	}

	userID, err := s.tokens.Consume(ctx, claims.ID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	return s.userRepo.SetPassword(ctx, userID, string(hash))
}
