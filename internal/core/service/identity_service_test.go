package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

// mockProvider records the arguments the service hands down.
type mockProvider struct {
	signedUpEmail string
	signedUpRole  string
	signedInEmail string
}

var _ port.IdentityProvider = (*mockProvider)(nil)

func (m *mockProvider) SignUp(ctx context.Context, email, password, role string) error {
	m.signedUpEmail = email
	m.signedUpRole = role
	return nil
}

func (m *mockProvider) ConfirmSignUp(ctx context.Context, email, code string) error { return nil }

func (m *mockProvider) SignIn(ctx context.Context, email, password string) (*domain.Tokens, error) {
	m.signedInEmail = email
	return &domain.Tokens{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *mockProvider) Authenticate(ctx context.Context, accessToken string) (*domain.Claims, error) {
	return &domain.Claims{Email: "alice@example.com", Role: domain.RoleUser}, nil
}

func (m *mockProvider) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	return nil
}
func (m *mockProvider) ForgotPassword(ctx context.Context, email string) error { return nil }
func (m *mockProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	return nil
}

func TestSignUp_NormalizesEmailAndAssignsUserRole(t *testing.T) {
	provider := &mockProvider{}
	svc := NewIdentityService(provider, testLogger())

	if err := svc.SignUp(context.Background(), "  Alice@Example.COM ", "Passw0rdok"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if provider.signedUpEmail != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", provider.signedUpEmail)
	}
	if provider.signedUpRole != domain.RoleUser {
		t.Errorf("self-service sign-up must get the user role, got %q", provider.signedUpRole)
	}
}

func TestSignUp_RejectsBadEmail(t *testing.T) {
	svc := NewIdentityService(&mockProvider{}, testLogger())

	for _, email := range []string{"", "not-an-email", "a@b", "@example.com"} {
		err := svc.SignUp(context.Background(), email, "Passw0rdok")
		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("email %q: expected validation error, got %v", email, err)
		}
	}
}

func TestPasswordPolicy(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Passw0rd", true},
		{"aB3aB3aB3", true},
		{"Sh0rt", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
		{"", false},
	}
	for _, tc := range cases {
		err := validatePassword(tc.password)
		if tc.ok && err != nil {
			t.Errorf("password %q: expected ok, got %v", tc.password, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("password %q: expected rejection", tc.password)
		}
	}
}

func TestSignIn_RequiresCredentials(t *testing.T) {
	provider := &mockProvider{}
	svc := NewIdentityService(provider, testLogger())

	if _, err := svc.SignIn(context.Background(), "alice@example.com", ""); err == nil {
		t.Error("expected empty password to be rejected")
	}
	if _, err := svc.SignIn(context.Background(), "nope", "Passw0rdok"); err == nil {
		t.Error("expected malformed email to be rejected")
	}

	tokens, err := svc.SignIn(context.Background(), "Alice@Example.com", "Passw0rdok")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Errorf("expected both tokens, got %+v", tokens)
	}
	if provider.signedInEmail != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", provider.signedInEmail)
	}
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	svc := NewIdentityService(&mockProvider{}, testLogger())

	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestChangePassword_EnforcesPolicyOnNewPassword(t *testing.T) {
	svc := NewIdentityService(&mockProvider{}, testLogger())

	err := svc.ChangePassword(context.Background(), "token", "OldPassw0rd", "weak")
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
