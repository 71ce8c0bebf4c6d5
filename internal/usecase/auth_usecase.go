package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenTTL = 15 * time.Minute

type AuthUsecase struct {
	cfg    config.Config
	users  repo.UserRepository
	logger zerolog.Logger
}

func NewAuthUsecase(cfg config.Config, users repo.UserRepository, logger zerolog.Logger) *AuthUsecase {
	return &AuthUsecase{
		cfg:    cfg,
		users:  users,
		logger: logger.With().Str("usecase", "auth").Logger(),
	}
}

type UserOutput struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
}

type TokenOutput struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginOutput struct {
	User  UserOutput  `json:"user"`
	Token TokenOutput `json:"token"`
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return UserOutput{}, errValidation("email is required")
	}
	if len(in.Password) < 8 {
		return UserOutput{}, errValidation("password must be at least 8 characters")
	}

	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return UserOutput{}, NewDomainError(http.StatusConflict, CodeValidation, "email already registered")
	} else if err != repo.ErrNotFound {
		return UserOutput{}, errInternal()
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserOutput{}, errInternal()
	}

	user := model.User{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		IsActive:     true,
	}

	id, err := u.users.Create(ctx, user)
	if err == repo.ErrDuplicate {
		// lost the race on the unique email index
		return UserOutput{}, NewDomainError(http.StatusConflict, CodeValidation, "email already registered")
	}
	if err != nil {
		return UserOutput{}, errInternal()
	}

	user.ID = id
	return toUserOutput(user), nil
}

func (u *AuthUsecase) Login(ctx context.Context, email string, password string) (LoginOutput, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginOutput{}, errValidation("email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err == repo.ErrNotFound {
		return LoginOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "invalid credentials")
	}
	if err != nil {
		return LoginOutput{}, errInternal()
	}
	if !user.IsActive {
		return LoginOutput{}, NewDomainError(http.StatusForbidden, CodeValidation, "account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "invalid credentials")
	}

	token, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		u.logger.Error().Err(err).Int64("user_id", user.ID).Msg("token signing failed")
		return LoginOutput{}, errInternal()
	}

	return LoginOutput{
		User: toUserOutput(user),
		Token: TokenOutput{
			AccessToken: token,
			ExpiresIn:   expiresIn,
		},
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserOutput, error) {
	if userID <= 0 {
		return UserOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return UserOutput{}, NewDomainError(http.StatusUnauthorized, CodeValidation, "unauthorized")
	}
	if err != nil {
		return UserOutput{}, errInternal()
	}
	if !user.IsActive {
		return UserOutput{}, NewDomainError(http.StatusForbidden, CodeValidation, "account disabled")
	}

	return toUserOutput(user), nil
}

func (u *AuthUsecase) issueAccessToken(user model.User) (string, int, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}
	return signed, int(accessTokenTTL.Seconds()), nil
}

func toUserOutput(u model.User) UserOutput {
	return UserOutput{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
	}
}
