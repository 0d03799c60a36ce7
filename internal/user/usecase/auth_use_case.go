package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"cartline/internal/domain"
	apperrors "cartline/internal/errors"
	"cartline/internal/infrastructure/mysql"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 3
)

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Insert(ctx context.Context, username, passwordHash string) (uint, error)
}

type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(digest, secret string) (bool, error)
}

type SessionStore interface {
	Create(ctx context.Context, userID uint) (string, error)
	Invalidate(ctx context.Context, token string) error
}

type AuthUseCase struct {
	users    UserStore
	hasher   PasswordHasher
	sessions SessionStore
	logger   *zap.Logger
}

func NewAuthUseCase(users UserStore, hasher PasswordHasher, sessions SessionStore, logger *zap.Logger) *AuthUseCase {
	return &AuthUseCase{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		logger:   logger,
	}
}

// validateCredentials counts characters, not bytes.
func validateCredentials(username, password string) error {
	var details []apperrors.ValidationDetail

	if utf8.RuneCountInString(username) < MinUsernameLength {
		details = append(details, apperrors.ValidationDetail{
			Field:   "username",
			Message: "username is too short",
		})
	}

	if utf8.RuneCountInString(password) < MinPasswordLength {
		details = append(details, apperrors.ValidationDetail{
			Field:   "password",
			Message: "password is too short",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

// Register creates the account and opens a session for it.
func (uc *AuthUseCase) Register(ctx context.Context, username, password string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, "", err
	}

	digest, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, "", apperrors.NewInternalError("hashing password", err)
	}

	id, err := uc.users.Insert(ctx, username, digest)
	if err != nil {
		if mysql.IsDuplicateEntry(err) {
			return nil, "", apperrors.NewConflictError("username", "username already exists")
		}
		uc.logger.Error("failed to insert user", zap.String("username", username), zap.Error(err))
		return nil, "", mysql.Classify(err)
	}

	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return nil, "", mysql.Classify(err)
	}

	token, err := uc.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	uc.logger.Info("user registered", zap.Uint("userId", user.ID), zap.String("username", user.Username))
	return user, token, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, "", err
	}

	user, err := uc.users.FindByUsername(ctx, username)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, "", apperrors.NewValidationError("login failed", apperrors.ValidationDetail{
				Field:   "username",
				Message: "user does not exist",
			})
		}
		return nil, "", mysql.Classify(err)
	}

	ok, err := uc.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		uc.logger.Error("stored password hash is unreadable", zap.Uint("userId", user.ID), zap.Error(err))
		return nil, "", apperrors.NewInternalError("verifying password", err)
	}
	if !ok {
		uc.logger.Info("login rejected", zap.String("username", username))
		return nil, "", apperrors.NewValidationError("login failed", apperrors.ValidationDetail{
			Field:   "password",
			Message: "incorrect password",
		})
	}

	token, err := uc.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	uc.logger.Info("user logged in", zap.Uint("userId", user.ID))
	return user, token, nil
}

func (uc *AuthUseCase) openSession(ctx context.Context, userID uint) (string, error) {
	token, err := uc.sessions.Create(ctx, userID)
	if err != nil {
		uc.logger.Error("failed to create session", zap.Uint("userId", userID), zap.Error(err))
		return "", apperrors.NewUnavailableError("session store unavailable", err)
	}
	return token, nil
}

// Logout drops the session. An empty token is a no-op.
func (uc *AuthUseCase) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := uc.sessions.Invalidate(ctx, token); err != nil {
		uc.logger.Error("failed to invalidate session", zap.Error(err))
		return apperrors.NewUnavailableError("session store unavailable", err)
	}
	return nil
}

func (uc *AuthUseCase) Me(ctx context.Context, userID uint) (*domain.User, error) {
	if userID == 0 {
		return nil, apperrors.NewUnauthenticatedError("you must be logged in")
	}

	user, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mysql.Classify(err)
	}
	return user, nil
}

func (uc *AuthUseCase) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := uc.users.List(ctx)
	if err != nil {
		return nil, mysql.Classify(err)
	}
	return users, nil
}
