package bootstrap

import (
	"errors"
	"fmt"

	attachmentinadapter "studyvault/internal/modules/attachment/adapter/in"
	attachmentoutadapter "studyvault/internal/modules/attachment/adapter/out"
	attachmentservice "studyvault/internal/modules/attachment/service"
	attachmentusecase "studyvault/internal/modules/attachment/usecase"
	reviewinadapter "studyvault/internal/modules/review/adapter/in"
	reviewoutadapter "studyvault/internal/modules/review/adapter/out"
	reviewservice "studyvault/internal/modules/review/service"
	reviewusecase "studyvault/internal/modules/review/usecase"
	sessioninadapter "studyvault/internal/modules/session/adapter/in"
	sessionoutadapter "studyvault/internal/modules/session/adapter/out"
	sessionservice "studyvault/internal/modules/session/service"
	sessionusecase "studyvault/internal/modules/session/usecase"
	"studyvault/internal/platform/clock"
	"studyvault/internal/platform/config"
	"studyvault/internal/platform/filelock"
	"studyvault/internal/platform/id"
	"studyvault/internal/platform/logging"
)

type App struct {
	Config *config.Config
	Logger *logging.Logger

	SessionCLI    sessioninadapter.CLIHandler
	ReviewCLI     reviewinadapter.CLIHandler
	AttachmentCLI attachmentinadapter.CLIHandler

	SessionHTTP *sessioninadapter.HTTPHandler
	ReviewHTTP  *reviewinadapter.HTTPHandler

	projector *sessionoutadapter.SQLiteCalendarProjector
}

func New(cfg *config.Config) (*App, error) {
	log, err := logging.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("new logger: %w", err)
	}
	return NewWithLogger(cfg, log)
}

// NewWithLogger wires the modules around an existing logger, which the App
// takes ownership of.
func NewWithLogger(cfg *config.Config, log *logging.Logger) (*App, error) {
	clk := clock.SystemClock{}

	projector, err := sessionoutadapter.NewSQLiteCalendarProjector(cfg.Index.DBPath)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("new calendar projector: %w", err)
	}

	locks := filelock.NewManager(cfg.LockOptions(), log)
	store := sessionoutadapter.NewVaultSessionStore(cfg.VaultPath, sessionoutadapter.VaultStoreOptions{
		Locks:           locks,
		Logger:          log,
		MetadataReaders: cfg.Store.MetadataReaders,
	})
	sessionUC := sessionusecase.NewInteractor(sessionservice.NewSessionService(
		clk,
		id.SessionID{Now: clk.Now},
		store,
		sessionservice.Options{
			Projector:       projector,
			Logger:          log,
			ExcludeWeekends: cfg.Review.ExcludeWeekends,
		},
	))

	reviewUC := reviewusecase.NewInteractor(reviewservice.NewReviewService(
		clk,
		reviewoutadapter.NewSessionGateway(sessionUC),
		cfg.Review.ExcludeWeekends,
	))

	attachmentUC := attachmentusecase.NewInteractor(attachmentservice.NewAttachmentService(
		cfg.VaultPath,
		clk,
		id.UUID{},
		attachmentoutadapter.NewLocalFileStore(),
		attachmentoutadapter.NewSessionGateway(sessionUC),
		attachmentservice.Options{
			Pages:    attachmentoutadapter.NewPDFPageCounter(),
			Launcher: attachmentoutadapter.NewOSLauncher(),
			Logger:   log,
		},
	))

	return &App{
		Config:        cfg,
		Logger:        log,
		SessionCLI:    sessioninadapter.NewCLIHandler(sessionUC),
		ReviewCLI:     reviewinadapter.NewCLIHandler(reviewUC),
		AttachmentCLI: attachmentinadapter.NewCLIHandler(attachmentUC),
		SessionHTTP:   sessioninadapter.NewHTTPHandler(sessionUC),
		ReviewHTTP:    reviewinadapter.NewHTTPHandler(reviewUC),
		projector:     projector,
	}, nil
}

func (a *App) Close() error {
	return errors.Join(a.projector.Close(), a.Logger.Close())
}
