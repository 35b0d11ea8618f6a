package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/id"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/utils"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

// AuthResult is returned by a successful sign-up or login.
type AuthResult struct {
	User      model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService owns user credentials: registration, password checks and
// token minting.
type AuthService struct {
	users  *repository.UserRepo
	tokens *utils.TokenService
	v      *validation.Validator
	cost   int
}

// NewAuthService returns an AuthService hashing passwords at cost.
func NewAuthService(users *repository.UserRepo, tokens *utils.TokenService, v *validation.Validator, bcryptCost int) *AuthService {
	return &AuthService{users: users, tokens: tokens, v: v, cost: bcryptCost}
}

// Register creates a regular user and signs them in. A taken username or
// email fails with DuplicateKey naming the field.
func (s *AuthService) Register(ctx context.Context, in model.RegisterInput) (AuthResult, error) {
	u, err := s.create(ctx, in, model.RoleUser)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(u)
}

// CreateUser is the admin path; it may assign any role.
func (s *AuthService) CreateUser(ctx context.Context, in model.CreateUserInput) (model.User, error) {
	role := in.Role
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser, model.RoleAdmin:
	default:
		return model.User{}, apperr.Validationf("role", "role must be one of [user admin]")
	}
	return s.create(ctx, in.RegisterInput, role)
}

func (s *AuthService) create(ctx context.Context, in model.RegisterInput, role string) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.v.Validate(in); err != nil {
		return model.User{}, err
	}
	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:           id.New(),
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		Role:         role,
		Photo:        in.Photo,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Authenticate looks the user up by email or username and checks the
// password. Unknown users fail with NotFound, wrong passwords with
// InvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (model.User, error) {
	if strings.TrimSpace(login) == "" {
		return model.User{}, apperr.Validationf("identifier", "email or username is required")
	}
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.User{}, apperr.NotFound("user not found")
		}
		return model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, apperr.InvalidCredentials("incorrect email/username or password")
	}
	return u, nil
}

// Login authenticates and mints a token.
func (s *AuthService) Login(ctx context.Context, in model.LoginInput) (AuthResult, error) {
	if err := s.v.Validate(in); err != nil {
		return AuthResult{}, err
	}
	u, err := s.Authenticate(ctx, in.Login(), in.Password)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(u)
}

// Me returns the caller's own record.
func (s *AuthService) Me(ctx context.Context, who model.Identity) (model.User, error) {
	if err := requireID(who.ID, "user"); err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, who.ID)
}

func (s *AuthService) issue(u model.User) (AuthResult, error) {
	tok, exp, err := s.tokens.Issue(u.ID, u.Role, u.Username)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, Token: tok, ExpiresAt: exp}, nil
}
