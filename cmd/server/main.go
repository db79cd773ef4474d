package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"

	osiapp "github.com/OsianJL/osiapp-api"
)

func main() {
	cfg, err := osiapp.LoadConfig()
	if err != nil {
		panic(err)
	}

	zlog := newLogger(cfg)
	logger := osiapp.NewZerologAdapter(zlog)

	ctx := context.Background()

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		zlog.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if err := bootstrapSchema(ctx, db); err != nil {
		zlog.Fatal().Err(err).Msg("bootstrap schema")
	}

	repo := osiapp.NewRepositoryManager(db)
	repo.MustValidate()

	provider := osiapp.NewUserProvider(repo.Users()).
		WithLogger(logger)

	auther := osiapp.NewAuthenticator(provider, cfg).
		WithLogger(logger)

	httpAuth, err := osiapp.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("http authenticator")
	}
	httpAuth.Logger = logger

	mailer := osiapp.NewSMTPMailer(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUsername,
		cfg.SMTPPassword,
		cfg.SMTPFrom,
	)

	confirmTokens := osiapp.NewConfirmationTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetIssuer(),
		logger,
	)

	registerUser := osiapp.NewRegisterUserHandler(
		repo,
		confirmTokens,
		mailer,
		cfg.GetPublicBaseURL(),
		logger,
	)

	confirmEmail := osiapp.NewConfirmEmailHandler(
		repo,
		confirmTokens,
		cfg.GetConfirmationMaxAge(),
		logger,
	)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       "osiapp-api",
			StrictRouting: false,
		}))
	})

	osiapp.RegisterAuthRoutes(srv.Router(),
		osiapp.WithControllerLogger(logger),
		osiapp.WithControllerRepo(repo),
		osiapp.WithControllerAuther(httpAuth),
		osiapp.WithControllerConfig(cfg),
		osiapp.WithControllerRegisterHandler(registerUser),
		osiapp.WithControllerConfirmHandler(confirmEmail),
		osiapp.WithControllerDebug(!cfg.IsProduction()),
	)

	zlog.Info().Str("addr", cfg.AppAddr).Str("env", cfg.AppEnv).Msg("starting server")

	srv.Serve(cfg.AppAddr)

	WaitExitSignal()

	zlog.Info().Msg("shutting down")
}

func newLogger(cfg *osiapp.AppConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.DebugLevel)
}

func openDatabase(dsn string) (*bun.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func bootstrapSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*osiapp.User)(nil),
		(*osiapp.Profile)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
