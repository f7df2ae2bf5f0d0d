package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emaily/internal/adapter/google"
	adapthttp "emaily/internal/adapter/http"
	"emaily/internal/adapter/memory"
	"emaily/internal/adapter/postgres"
	"emaily/internal/adapter/redisstore"
	"emaily/internal/adapter/stripe"
	"emaily/internal/app"
	"emaily/internal/config"
	"emaily/internal/domain"
	"emaily/internal/logging"
	"emaily/internal/observability"

	"github.com/rs/zerolog"
)

const pruneInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("emaily", false, "")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logging.New("emaily", cfg.Production(), cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		users    domain.UserRepository
		sessions domain.SessionRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("db open")
		}
		defer func() { _ = db.Close() }()
		users, sessions = db, postgres.NewSessionRepo(db)
		log.Info().Msg("storage: postgres")
	} else {
		db := memory.New()
		users, sessions = db, db.NewSessionRepo()
		log.Warn().Msg("storage: in-memory, data is lost on restart")
	}

	if cfg.RedisURL != "" {
		rdb, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect")
		}
		defer func() { _ = rdb.Close() }()
		sessions = redisstore.NewSessionRepo(rdb, "")
		log.Info().Msg("sessions: redis")
	}

	codec, err := app.NewSessionCodec(cfg.CookieKey)
	if err != nil {
		log.Fatal().Err(err).Msg("session codec")
	}

	var identity domain.IdentityProvider
	if cfg.GoogleEnabled() {
		provider, err := google.New(ctx, google.Issuer, google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + google.CallbackPath,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("google discovery")
		}
		identity = provider
	} else {
		log.Warn().Msg("google sign-in disabled: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET missing")
	}
	if cfg.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY missing: purchases will fail")
	}

	observability.Register()

	authSvc := app.NewAuthService(users, sessions, codec, log.With().Str("component", "auth").Logger())
	billingSvc := app.NewBillingService(users, stripe.New(cfg.StripeSecretKey), log.With().Str("component", "billing").Logger())

	go pruneSessions(ctx, authSvc, log)

	h := adapthttp.New(authSvc, billingSvc, identity, log.With().Str("component", "http").Logger(), adapthttp.Options{
		WebDir:        cfg.WebDir,
		Production:    cfg.Production(),
		SecureCookies: cfg.SecureCookies(),
	}).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("serve")
	}
	log.Info().Msg("shut down")
}

func pruneSessions(ctx context.Context, auth *app.AuthService, log zerolog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PruneSessions(ctx); err != nil {
				log.Warn().Err(err).Msg("prune sessions")
			}
		}
	}
}
