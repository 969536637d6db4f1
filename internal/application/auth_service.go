package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/staybook/service-stays/internal/auth"
	"github.com/staybook/service-stays/internal/domain"
	userDomain "github.com/staybook/service-stays/internal/domain/user"
)

// RegisterRequest holds the data needed to create an account.
type RegisterRequest struct {
	Username string
	Password string
	Role     string
}

// UserDTO is the response representation of an account.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AuthService handles registration and login. It exists to issue the
// opaque caller identities the booking operations consume.
type AuthService struct {
	users  userDomain.Repository
	tokens *auth.JWTManager
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(users userDomain.Repository, tokens *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger, now: time.Now}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	if len(req.Password) < 8 {
		return nil, domain.NewValidationError(domain.CodeValidation, "password must be at least 8 characters")
	}

	existing, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		var appErr *domain.AppError
		if !errors.As(err, &appErr) || appErr.Kind != domain.KindNotFound {
			return nil, err
		}
	}
	if existing != nil {
		return nil, domain.NewConflictError(domain.CodeConflict, "username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewUnavailableError("could not hash password", err)
	}

	usr, err := userDomain.NewUser(req.Username, string(hash), userDomain.Role(req.Role), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, usr); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", usr.ID.String()),
		zap.String("role", string(usr.Role)),
	)
	return &UserDTO{ID: usr.ID.String(), Username: usr.Username, Role: string(usr.Role)}, nil
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	usr, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Kind == domain.KindNotFound {
			return "", domain.NewUnauthorizedError("invalid username or password")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return "", domain.NewUnauthorizedError("invalid username or password")
	}

	token, err := s.tokens.Generate(usr.ID, string(usr.Role))
	if err != nil {
		return "", domain.NewUnavailableError("could not issue token", err)
	}
	return token, nil
}
