package service

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IdentityService validates identity requests before handing them to the
// identity provider. New accounts always get the "user" role; there is no
// self-service path to admin.
type IdentityService struct {
	provider port.IdentityProvider
	log      *logrus.Logger
}

func NewIdentityService(provider port.IdentityProvider, log *logrus.Logger) *IdentityService {
	return &IdentityService{provider: provider, log: log}
}

func (s *IdentityService) SignUp(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return domain.Validationf("invalid email format")
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	return s.provider.SignUp(ctx, email, password, domain.RoleUser)
}

func (s *IdentityService) ConfirmSignUp(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return domain.Validationf("email and code are required")
	}
	return s.provider.ConfirmSignUp(ctx, email, code)
}

func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*domain.Tokens, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) || password == "" {
		return nil, domain.Validationf("email and password are required")
	}
	return s.provider.SignIn(ctx, email, password)
}

func (s *IdentityService) Authenticate(ctx context.Context, accessToken string) (*domain.Claims, error) {
	if accessToken == "" {
		return nil, domain.ErrInvalidToken
	}
	return s.provider.Authenticate(ctx, accessToken)
}

func (s *IdentityService) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	if accessToken == "" {
		return domain.ErrInvalidToken
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	return s.provider.ChangePassword(ctx, accessToken, oldPassword, newPassword)
}

func (s *IdentityService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return domain.Validationf("invalid email format")
	}
	return s.provider.ForgotPassword(ctx, email)
}

func (s *IdentityService) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return domain.Validationf("email and code are required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	return s.provider.ConfirmForgotPassword(ctx, email, code, newPassword)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword mirrors the sign-up policy: at least eight characters with
// one lowercase letter, one uppercase letter and one digit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return domain.Validationf("password must be at least 8 characters")
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return domain.Validationf("password must contain a lowercase letter, an uppercase letter and a digit")
	}
	return nil
}
