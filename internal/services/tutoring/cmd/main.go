package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/suguidance/guidance-go/internal/pkg/logging"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/access"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/calendar"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/config"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/credentials"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/notify"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/oauth"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/otc"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/provider"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/rest"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/service"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/token"
)

func run(ctx context.Context) error {
	cfg := config.FromEnv()
	slog.SetDefault(logging.New(cfg.Log.Level, cfg.Log.Format))

	slog.Info("starting tutoring service")

	db, err := store.NewPostgresDB(ctx, store.PostgresConfig{
		URL:             cfg.DB.URL,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := store.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate db: %w", err)
		}
	}

	pgs := store.NewPostgresStore(db)

	creds, err := newCredentialStore(pgs, cfg)
	if err != nil {
		return err
	}

	gateway := calendar.NewGateway(creds, pgs, calendar.Config{
		Name:     cfg.Calendar.Name,
		TimeZone: cfg.Calendar.TimeZone,
		Endpoint: cfg.Calendar.Endpoint,
	})

	auth := oauth.NewAuthenticator()
	if err := registerProviders(ctx, auth, cfg); err != nil {
		return fmt.Errorf("failed to register oauth providers: %w", err)
	}

	authOpts := []service.AuthOption{
		service.WithAuthenticator(auth),
		service.WithStore(pgs),
		service.WithAccessToken(token.NewJWTIssuer(token.JwtConfig{
			Secret: token.NewSecretString(cfg.JWT.AccessSecret),
			Issuer: cfg.JWT.Issuer,
			TTL:    cfg.JWT.AccessTTL,
			Type:   token.TypeAccess,
		})),
		service.WithRefreshToken(token.NewJWTIssuer(token.JwtConfig{
			Secret: token.NewSecretString(cfg.JWT.RefreshSecret),
			Issuer: cfg.JWT.Issuer,
			TTL:    cfg.JWT.RefreshTTL,
			Type:   token.TypeRefresh,
		})),
		service.WithCredentials(creds),
		service.WithCalendars(gateway),
		service.WithDomain(cfg.Google.TopDomain),
		service.WithRedirectURIs(cfg.Google.RedirectURIs),
		service.WithClient(service.ClientConfig{
			Scopes:   provider.GoogleScopes,
			ClientID: cfg.Google.ClientID,
		}),
	}

	ready := []func(context.Context) error{db.PingContext}
	notifier := notify.NewNotifier(nil)

	if cfg.Redis.Enabled() {
		codes := otc.NewRedis(otc.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.CodeTTL,
		})
		defer codes.Close()

		authOpts = append(authOpts, service.WithOTC(codes))
		ready = append(ready, codes.Ping)

		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		client := asynq.NewClient(redisOpt)
		defer client.Close()
		notifier = notify.NewNotifier(client)

		stop, err := notify.Start(notify.ServerConfig{
			Redis:       redisOpt,
			Concurrency: cfg.Redis.Workers,
			Logger:      slog.Default(),
		}, notify.LogDeliverer{Logger: slog.Default()})
		if err != nil {
			return fmt.Errorf("failed to start notification worker: %w", err)
		}
		defer stop()
	} else {
		slog.Warn("redis is not configured, one-time codes and notifications are disabled")
	}

	categories, err := service.NewCategories(pgs, service.CacheConfig{
		MaxItems: cfg.Cache.CategoryItems,
		TTL:      cfg.Cache.CategoryTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create category cache: %w", err)
	}
	defer categories.Close()

	api := rest.NewAPI(rest.Services{
		Auth:       service.NewAuth(authOpts...),
		Users:      service.NewUsers(pgs, gateway),
		Categories: categories,
		Reviews:    service.NewReviews(pgs),
		Reports:    service.NewReports(pgs),
		Sessions: service.NewScheduler(pgs, gateway, categories, notifier, service.SchedulerConfig{
			TimeZone: cfg.Calendar.TimeZone,
		}),
	}, access.NewGuard(pgs, []byte(cfg.JWT.AccessSecret)), rest.Config{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", readyHandler(ready...))
	mux.Handle("/", api)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		Handler:      mux,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func newCredentialStore(blobs *store.PostgresStore, cfg config.Config) (*credentials.Store, error) {
	var cipher *credentials.TokenCipher
	if cfg.Credentials.EncryptionKey != "" {
		c, err := credentials.NewTokenCipher(cfg.Credentials.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create token cipher: %w", err)
		}
		cipher = c
	} else {
		slog.Warn("credential encryption key is not set, tokens are stored unencrypted")
	}

	return credentials.NewStore(blobs, credentials.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		Cipher:       cipher,
	}), nil
}

func registerProviders(ctx context.Context, auth *oauth.Authenticator, cfg config.Config) error {
	prvGoogle, err := provider.NewGoogle(ctx, provider.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.CallbackURL,
		Issuer:       cfg.Google.IssuerURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create google oauth provider: %w", err)
	}

	return auth.Use("google", prvGoogle)
}

// readyHandler answers 200 once every check passes.
func readyHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				slog.Warn("readiness check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("tutoring service terminated with error", "error", err)
		os.Exit(1)
	}
}
