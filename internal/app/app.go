package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"torres_backend/database"
	"torres_backend/internal/appErrors"
	"torres_backend/internal/auth"
	"torres_backend/internal/config"
	"torres_backend/internal/lock"
	"torres_backend/internal/logger"
	"torres_backend/internal/services"

	"gorm.io/gorm"
)

// Коды завершения процесса
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitConflict = 3
	ExitDeclined = 4
	ExitConfig   = 5
)

// Runtime holds what a command needs from the outside world. Tests replace
// the database opener and the locker factory.
type Runtime struct {
	Config    *config.Config
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
	OpenDB    func(cfg *config.Config) (db *gorm.DB, closeDB func(), err error)
	NewLocker func(ctx context.Context, cfg *config.Config) (lock.Locker, func())
	Options   []services.AdminOption
}

// Run - точка входа manage: загрузка конфигурации, логгер, выполнение команды.
func Run(args []string) int {
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		// Конфигурация не загружена - логгер еще не настроен
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		return ExitConfig
	}

	logger.Init(cfg.App.Environment, cfg.Log.Level, cfg.Log.Format)
	if cfg.IsDevelopment() {
		logMailKeyStatus(cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := &Runtime{
		Config:    cfg,
		In:        os.Stdin,
		Out:       os.Stdout,
		Err:       os.Stderr,
		OpenDB:    openPostgres,
		NewLocker: redisLocker,
	}
	return Execute(ctx, rt, args)
}

func logMailKeyStatus(cfg *config.Config) {
	if cfg.Mail.SendGridAPIKey == "" {
		logger.Info("Mail provider key is not configured")
		return
	}
	logger.Info("Mail provider key is configured", "sendgrid_api_key", cfg.MaskedMailKey())
}

func openPostgres(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, nil
}

// redisLocker connects to REDIS_URL. Without redis the operations still run,
// just without cross-process exclusion.
func redisLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func()) {
	rdb, err := lock.Connect(ctx, cfg.Cache.RedisURL)
	if err != nil {
		logger.Warn("Redis unavailable, admin operations are not locked", "error", err)
		return lock.NoopLocker{}, func() {}
	}
	return lock.NewRedisLocker(rdb, "torres:lock:"), func() { _ = rdb.Close() }
}

// withServices открывает БД на время одной команды и закрывает ее на любом выходе.
func (rt *Runtime) withServices(ctx context.Context, fn func(svc *services.ServiceContainer) error) error {
	db, closeDB, err := rt.OpenDB(rt.Config)
	if err != nil {
		fmt.Fprintf(rt.Err, "❌ Database unavailable: %v\n", err)
		return appErrors.DatabaseError(err)
	}
	defer closeDB()

	locker := lock.Locker(lock.NoopLocker{})
	if rt.NewLocker != nil {
		var release func()
		locker, release = rt.NewLocker(ctx, rt.Config)
		defer release()
	}

	tokens, err := auth.NewTokenIssuer(rt.Config)
	if err != nil {
		logger.Warn("Token issuer disabled", "error", err)
		tokens = nil
	}

	return fn(services.NewServiceContainer(db, tokens, locker, rt.Options...))
}

// ExitCode maps a command error onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var uErr *usageError
	if errors.As(err, &uErr) {
		return ExitUsage
	}

	switch appErrors.CodeOf(err) {
	case appErrors.CodeValidationFailed, appErrors.CodeInvalidPlan:
		return ExitUsage
	case appErrors.CodeEmailAlreadyExists, appErrors.CodeOperationInProgress:
		return ExitConflict
	case appErrors.CodeConfirmationDeclined:
		return ExitDeclined
	case appErrors.CodeConfigInvalid:
		return ExitConfig
	}
	return ExitFailure
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// describe returns the operator-facing text of an error.
func describe(err error) string {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == appErrors.CodeValidationFailed && appErr.Err != nil {
			return appErr.Err.Error()
		}
		if appErr.Code == appErrors.CodeDatabaseError && appErr.Err != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
		}
		return appErr.Message
	}
	return err.Error()
}
