package user

import (
	"database/sql"

	"go.uber.org/zap"

	"cartline/internal/config"
	"cartline/internal/credential"
	"cartline/internal/session"
	"cartline/internal/user/controller"
	"cartline/internal/user/repository"
	"cartline/internal/user/usecase"
)

func NewModule(db *sql.DB, sessions *session.RedisDirectory, cfg *config.Config, logger *zap.Logger) *controller.UserController {
	repo := repository.NewMySQLUserRepository(db)
	hasher := credential.NewHasher(credential.DefaultParams)
	uc := usecase.NewAuthUseCase(repo, hasher, sessions, logger)
	return controller.NewUserController(uc, cfg.Session.CookieName, sessions.TTL(), logger)
}
