// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, logout and issuing/refreshing
// JWTs plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/auth"
	"github.com/dmitrijs2005/cookbook/internal/server/config"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Registration is the sign-up form. Every field is required.
type Registration struct {
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - Logout: drop the session and the user's search history
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	bcryptCost                   int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		bcryptCost:                   cfg.BcryptCost,
	}
}

func (r *Registration) validate() error {
	fields := []struct{ name, value string }{
		{"username", r.Username},
		{"firstname", r.FirstName},
		{"lastname", r.LastName},
		{"country", r.Country},
		{"email", r.Email},
		{"password", r.Password},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required: %w", f.name, common.ErrorInvalidArgument)
		}
	}
	if err := auth.ValidateUsername(r.Username); err != nil {
		return err
	}
	return auth.ValidatePassword(r.Password)
}

// Register validates the form and creates the user. A taken username yields
// common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, reg Registration) (*models.User, error) {
	if err := reg.validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	exists, err := repo.Exists(ctx, reg.Username)
	if err != nil {
		return nil, fmt.Errorf("error checking username: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("username %q: %w", reg.Username, common.ErrorAlreadyExists)
	}

	hash, err := auth.HashPassword(reg.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := repo.Create(ctx, &models.User{
		UserName:     reg.Username,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Country:      reg.Country,
		Email:        reg.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the password and, on success, returns a new TokenPair.
// An unknown user and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, userName, password string) (*TokenPair, error) {
	if userName == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrorInvalidArgument)
	}
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(ctx, user.ID, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.Sessions(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Sessions(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			// a concurrent refresh consumed the token first
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout deletes the session behind refreshToken and the last search of
// userID. An unknown token is not an error.
func (s *UserService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if refreshToken != "" {
			err := s.repomanager.Sessions(tx).Delete(ctx, refreshToken)
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("error deleting session: %w", err)
			}
		}
		if userID > 0 {
			if err := s.repomanager.Searches(tx).DeleteForUser(ctx, userID); err != nil {
				return fmt.Errorf("error clearing search history: %w", err)
			}
		}
		return nil
	})
}

// Authenticate resolves an access token to the user id it was issued for.
func (s *UserService) Authenticate(accessToken string) (int64, error) {
	return auth.GetUserIDFromToken(accessToken, s.jwtSecret)
}

// --- helpers below ---

func (s *UserService) generateAccessToken(userID int64) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID int64, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	sessionRepo := s.repomanager.Sessions(tx)
	if err := sessionRepo.Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
