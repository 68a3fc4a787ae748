package identity

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

const (
	confirmKeyPrefix = "confirm:"
	resetKeyPrefix   = "reset:"

	codeTTL    = 15 * time.Minute
	sessionTTL = 1 * time.Hour
	refreshTTL = 30 * 24 * time.Hour
)

// LocalProvider implements the identity collaborator on top of the user
// repository and the token store: bcrypt password hashes, opaque uuid tokens
// and one-time numeric codes. Codes are logged instead of mailed; wiring a
// mail sender is an operational concern outside this service.
type LocalProvider struct {
	users  port.UserRepository
	tokens port.TokenStore
	log    *logrus.Logger
}

func NewLocalProvider(users port.UserRepository, tokens port.TokenStore, log *logrus.Logger) *LocalProvider {
	return &LocalProvider{users: users, tokens: tokens, log: log}
}

var _ port.IdentityProvider = (*LocalProvider)(nil)

func (p *LocalProvider) SignUp(ctx context.Context, email, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Confirmed:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		return err
	}

	code, err := newCode()
	if err != nil {
		return fmt.Errorf("generate confirmation code: %w", err)
	}
	if err := p.tokens.PutCode(ctx, confirmKeyPrefix+email, code, codeTTL); err != nil {
		return fmt.Errorf("store confirmation code: %w", err)
	}
	p.log.WithFields(logrus.Fields{"email": email, "code": code}).Info("sign-up confirmation code issued")
	return nil
}

func (p *LocalProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	stored, err := p.tokens.GetCode(ctx, confirmKeyPrefix+email)
	if err != nil {
		return fmt.Errorf("read confirmation code: %w", err)
	}
	if stored == "" || stored != code {
		return domain.ErrInvalidCode
	}
	if err := p.users.ConfirmUser(ctx, email); err != nil {
		return err
	}
	return p.tokens.DeleteCode(ctx, confirmKeyPrefix+email)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*domain.Tokens, error) {
	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.Confirmed {
		return nil, domain.ErrUserNotConfirmed
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	claims, err := json.Marshal(domain.Claims{Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("marshal claims: %w", err)
	}

	tokens := &domain.Tokens{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
	}
	if err := p.tokens.PutSession(ctx, tokens.AccessToken, string(claims), sessionTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	if err := p.tokens.PutSession(ctx, tokens.RefreshToken, string(claims), refreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh session: %w", err)
	}
	return tokens, nil
}

func (p *LocalProvider) Authenticate(ctx context.Context, accessToken string) (*domain.Claims, error) {
	raw, err := p.tokens.GetSession(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if raw == "" {
		return nil, domain.ErrInvalidToken
	}
	var claims domain.Claims
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}
	return &claims, nil
}

func (p *LocalProvider) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	claims, err := p.Authenticate(ctx, accessToken)
	if err != nil {
		return err
	}
	user, err := p.users.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		return fmt.Errorf("read user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return domain.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return p.users.UpdatePassword(ctx, claims.Email, string(hash))
}

func (p *LocalProvider) ForgotPassword(ctx context.Context, email string) error {
	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("read user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	code, err := newCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	if err := p.tokens.PutCode(ctx, resetKeyPrefix+email, code, codeTTL); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}
	p.log.WithFields(logrus.Fields{"email": email, "code": code}).Info("password reset code issued")
	return nil
}

func (p *LocalProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	stored, err := p.tokens.GetCode(ctx, resetKeyPrefix+email)
	if err != nil {
		return fmt.Errorf("read reset code: %w", err)
	}
	if stored == "" || stored != code {
		return domain.ErrInvalidCode
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := p.users.UpdatePassword(ctx, email, string(hash)); err != nil {
		return err
	}
	return p.tokens.DeleteCode(ctx, resetKeyPrefix+email)
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
