package controller

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cartline/internal/domain"
	"cartline/internal/dto"
	"cartline/internal/httpx"
	"cartline/internal/session"
)

type AuthUseCase interface {
	Register(ctx context.Context, username, password string) (*domain.User, string, error)
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, userID uint) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type UserController struct {
	useCase    AuthUseCase
	cookieName string
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewUserController(useCase AuthUseCase, cookieName string, sessionTTL time.Duration, logger *zap.Logger) *UserController {
	return &UserController{
		useCase:    useCase,
		cookieName: cookieName,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

func (c *UserController) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *UserController) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	user, token, err := c.useCase.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	c.setSessionCookie(w, token)
	httpx.WriteJSON(w, c.logger, http.StatusCreated, dto.SessionResponse{User: dto.NewUserResponse(*user), Token: token})
}

func (c *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	user, token, err := c.useCase.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	c.setSessionCookie(w, token)
	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.SessionResponse{User: dto.NewUserResponse(*user), Token: token})
}

func (c *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := c.useCase.Logout(r.Context(), session.Token(r.Context())); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	c.clearSessionCookie(w)
	httpx.WriteNoContent(w)
}

func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserID(r.Context())

	user, err := c.useCase.Me(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewUserResponse(*user))
}

func (c *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.useCase.ListUsers(r.Context())
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewUserResponses(users))
}
