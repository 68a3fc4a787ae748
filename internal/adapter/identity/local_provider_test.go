package identity

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ldt1810/shop-backend/internal/adapter/storage"
	"github.com/ldt1810/shop-backend/internal/core/domain"
)

func newTestProvider() (*LocalProvider, *storage.MemoryStore) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := storage.NewMemoryStore()
	return NewLocalProvider(store, store, log), store
}

func signUpAndConfirm(t *testing.T, p *LocalProvider, store *storage.MemoryStore, email, password string) {
	t.Helper()
	ctx := context.Background()
	if err := p.SignUp(ctx, email, password, domain.RoleUser); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	code, err := store.GetCode(ctx, confirmKeyPrefix+email)
	if err != nil || code == "" {
		t.Fatalf("expected stored confirmation code, got %q err %v", code, err)
	}
	if err := p.ConfirmSignUp(ctx, email, code); err != nil {
		t.Fatalf("ConfirmSignUp failed: %v", err)
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	p, store := newTestProvider()
	ctx := context.Background()

	signUpAndConfirm(t, p, store, "alice@example.com", "Passw0rdok")

	tokens, err := p.SignIn(ctx, "alice@example.com", "Passw0rdok")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}

	claims, err := p.Authenticate(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if claims.Email != "alice@example.com" || claims.Role != domain.RoleUser {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestSignIn_BeforeConfirmation(t *testing.T) {
	p, _ := newTestProvider()
	ctx := context.Background()

	if err := p.SignUp(ctx, "alice@example.com", "Passw0rdok", domain.RoleUser); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if _, err := p.SignIn(ctx, "alice@example.com", "Passw0rdok"); !errors.Is(err, domain.ErrUserNotConfirmed) {
		t.Fatalf("expected ErrUserNotConfirmed, got %v", err)
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	p, store := newTestProvider()

	signUpAndConfirm(t, p, store, "alice@example.com", "Passw0rdok")

	if _, err := p.SignIn(context.Background(), "alice@example.com", "WrongPass1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignIn_UnknownUser(t *testing.T) {
	p, _ := newTestProvider()

	if _, err := p.SignIn(context.Background(), "ghost@example.com", "Passw0rdok"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	p, _ := newTestProvider()
	ctx := context.Background()

	if err := p.SignUp(ctx, "alice@example.com", "Passw0rdok", domain.RoleUser); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := p.SignUp(ctx, "alice@example.com", "Passw0rdok", domain.RoleUser); !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestConfirmSignUp_WrongCode(t *testing.T) {
	p, _ := newTestProvider()
	ctx := context.Background()

	if err := p.SignUp(ctx, "alice@example.com", "Passw0rdok", domain.RoleUser); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := p.ConfirmSignUp(ctx, "alice@example.com", "000000x"); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

// A confirmation code is single-use; replaying it must fail.
func TestConfirmSignUp_CodeConsumed(t *testing.T) {
	p, store := newTestProvider()
	ctx := context.Background()

	if err := p.SignUp(ctx, "alice@example.com", "Passw0rdok", domain.RoleUser); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	code, _ := store.GetCode(ctx, confirmKeyPrefix+"alice@example.com")
	if err := p.ConfirmSignUp(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("ConfirmSignUp failed: %v", err)
	}
	if err := p.ConfirmSignUp(ctx, "alice@example.com", code); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("expected replay to fail with ErrInvalidCode, got %v", err)
	}
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	p, _ := newTestProvider()

	if _, err := p.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	p, store := newTestProvider()
	ctx := context.Background()

	signUpAndConfirm(t, p, store, "alice@example.com", "Passw0rdok")
	tokens, err := p.SignIn(ctx, "alice@example.com", "Passw0rdok")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if err := p.ChangePassword(ctx, tokens.AccessToken, "WrongPass1", "NewPassw0rd"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong old password, got %v", err)
	}
	if err := p.ChangePassword(ctx, tokens.AccessToken, "Passw0rdok", "NewPassw0rd"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := p.SignIn(ctx, "alice@example.com", "Passw0rdok"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := p.SignIn(ctx, "alice@example.com", "NewPassw0rd"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
}

func TestForgotPasswordFlow(t *testing.T) {
	p, store := newTestProvider()
	ctx := context.Background()

	signUpAndConfirm(t, p, store, "alice@example.com", "Passw0rdok")

	if err := p.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	code, _ := store.GetCode(ctx, resetKeyPrefix+"alice@example.com")
	if code == "" {
		t.Fatal("expected stored reset code")
	}
	if len(code) != 6 {
		t.Errorf("expected a 6-digit code, got %q", code)
	}

	if err := p.ConfirmForgotPassword(ctx, "alice@example.com", "999999x", "NewPassw0rd"); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for wrong code, got %v", err)
	}
	if err := p.ConfirmForgotPassword(ctx, "alice@example.com", code, "NewPassw0rd"); err != nil {
		t.Fatalf("ConfirmForgotPassword failed: %v", err)
	}
	if _, err := p.SignIn(ctx, "alice@example.com", "NewPassw0rd"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
}

func TestForgotPassword_UnknownUser(t *testing.T) {
	p, _ := newTestProvider()

	if err := p.ForgotPassword(context.Background(), "ghost@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
