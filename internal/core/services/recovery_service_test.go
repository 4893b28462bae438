package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
	"github.com/labmanager/identity-access-service/internal/mocks"
)

type recoveryFixture struct {
	service *RecoveryService
	users   *mocks.MockUserRepository
	tokens  *mocks.MockRecoveryTokenStore
	outbox  *mocks.MockOutboxRepository
}

func newRecoveryFixture(t *testing.T, ttl time.Duration) *recoveryFixture {
	t.Helper()
	priv, pub := testKeyPair(t)
	users := mocks.NewMockUserRepository()
	tokens := mocks.NewMockRecoveryTokenStore()
	outbox := mocks.NewMockOutboxRepository()
	return &recoveryFixture{
		service: NewRecoveryService(users, tokens, outbox, priv, pub, ttl),
		users:   users,
		tokens:  tokens,
		outbox:  outbox,
	}
}

func TestRecoveryService_Request(t *testing.T) {
	t.Run("known_email_enqueues_event_and_saves_token", func(t *testing.T) {
		f := newRecoveryFixture(t, time.Hour)
		f.users.SeedUser(&domain.User{DNI: "23456789", Email: "a@b.com"})

		if err := f.service.Request(context.Background(), "a@b.com"); err != nil {
			t.Fatalf("Request() error: %v", err)
		}
		if len(f.tokens.SaveCalls) != 1 {
			t.Errorf("token saves = %d, want 1", len(f.tokens.SaveCalls))
		}
		if len(f.outbox.EnqueueCalls) != 1 || f.outbox.EnqueueCalls[0] != ports.EventRecoveryRequested {
			t.Fatalf("enqueue calls = %v, want one %s", f.outbox.EnqueueCalls, ports.EventRecoveryRequested)
		}

		var evt ports.RecoveryRequestedEvent
		if err := json.Unmarshal(f.outbox.Payloads[0], &evt); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if evt.Email != "a@b.com" || evt.Token == "" {
			t.Errorf("event = %+v, want the email and a token", evt)
		}
	})

	t.Run("unknown_email_is_silently_accepted", func(t *testing.T) {
		f := newRecoveryFixture(t, time.Hour)

		if err := f.service.Request(context.Background(), "nobody@b.com"); err != nil {
			t.Fatalf("Request() error: %v", err)
		}
		if len(f.tokens.SaveCalls) != 0 || len(f.outbox.EnqueueCalls) != 0 {
			t.Error("unknown email must not save a token or enqueue an event")
		}
	})
}

func TestRecoveryService_Reset(t *testing.T) {
	issue := func(t *testing.T, f *recoveryFixture, email string) string {
		t.Helper()
		if err := f.service.Request(context.Background(), email); err != nil {
			t.Fatalf("Request() error: %v", err)
		}
		var evt ports.RecoveryRequestedEvent
		if err := json.Unmarshal(f.outbox.Payloads[len(f.outbox.Payloads)-1], &evt); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		return evt.Token
	}

	t.Run("valid_token_sets_the_new_password", func(t *testing.T) {
		f := newRecoveryFixture(t, time.Hour)
		user := &domain.User{DNI: "23456789", Email: "a@b.com", Account: domain.PendingAccount{}}
		f.users.SeedUser(user)
		token := issue(t, f, "a@b.com")

		if err := f.service.Reset(context.Background(), token, "newsecret"); err != nil {
			t.Fatalf("Reset() error: %v", err)
		}

		acct, ok := user.Account.(domain.RegisteredAccount)
		if !ok {
			t.Fatalf("account = %T, want RegisteredAccount", user.Account)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("newsecret")); err != nil {
			t.Errorf("stored hash does not match the new password: %v", err)
		}
	})

	t.Run("token_cannot_be_replayed", func(t *testing.T) {
		f := newRecoveryFixture(t, time.Hour)
		f.users.SeedUser(&domain.User{DNI: "23456789", Email: "a@b.com"})
		token := issue(t, f, "a@b.com")

		if err := f.service.Reset(context.Background(), token, "newsecret"); err != nil {
			t.Fatalf("first Reset() error: %v", err)
		}
		if err := f.service.Reset(context.Background(), token, "othersecret"); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("second Reset() error = %v, want %v", err, domain.ErrInvalidToken)
		}
	})

	t.Run("expired_token_rejected", func(t *testing.T) {
		f := newRecoveryFixture(t, -time.Minute)
		f.users.SeedUser(&domain.User{DNI: "23456789", Email: "a@b.com"})
		token := issue(t, f, "a@b.com")

		if err := f.service.Reset(context.Background(), token, "newsecret"); !errors.Is(err, domain.ErrExpiredToken) {
			t.Errorf("Reset() error = %v, want %v", err, domain.ErrExpiredToken)
		}
	})

	t.Run("session_token_rejected_as_recovery_token", func(t *testing.T) {
		f := newRecoveryFixture(t, time.Hour)
		user := &domain.User{DNI: "23456789", Email: "a@b.com", Role: domain.RoleBiochemist}
		f.users.SeedUser(user)

		auth := NewAuthService(f.users, f.service.privateKey, f.service.publicKey, time.Hour)
		sessionToken, err := auth.IssueToken(user)
		if err != nil {
			t.Fatalf("IssueToken() error: %v", err)
		}
		if err := f.service.Reset(context.Background(), sessionToken, "newsecret"); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("Reset() error = %v, want %v", err, domain.ErrInvalidToken)
		}
	})

	t.Run("garbage_token_rejected", func(t *testing.T) {
		f := newRecoveryFixture(t, time.Hour)
		if err := f.service.Reset(context.Background(), "not.a.token", "newsecret"); !errors.Is(err, domain.ErrMalformedToken) {
			t.Errorf("Reset() error = %v, want %v", err, domain.ErrMalformedToken)
		}
	})
}
