package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"github.com/albumpages/paper-shipping/internal/calculator"
	"github.com/albumpages/paper-shipping/internal/carrier"
	"github.com/albumpages/paper-shipping/internal/catalog"
	"github.com/albumpages/paper-shipping/internal/config"
	"github.com/albumpages/paper-shipping/internal/database"
	"github.com/albumpages/paper-shipping/internal/handlers"
	"github.com/albumpages/paper-shipping/internal/observability"
	"github.com/albumpages/paper-shipping/internal/paper"
	"github.com/albumpages/paper-shipping/internal/rates"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Command line flags
	port := flag.String("port", cfg.Server.Port, "Server port")
	testMode := flag.Bool("test-mode", cfg.Carrier.TestMode, "Use the carrier test environment")
	savePassPhrase := flag.Bool("save-pass-phrase", false, "Store ENDICIA_PASS_PHRASE encrypted in the database")
	flag.Parse()
	cfg.Server.Port = *port
	cfg.Carrier.TestMode = *testMode

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database opened", zap.String("path", cfg.Database.Path))

	if err := resolvePassPhrase(cfg, db, *savePassPhrase, logger); err != nil {
		return err
	}

	carrierClient := carrier.NewClient(cfg.Carrier.Client())
	if !carrierClient.IsConfigured() {
		logger.Warn("ENDICIA_ACCOUNT_ID or pass phrase not set - live rates unavailable, fallback table will be used")
	}

	calc := calculator.New(paper.NewResolver(cat), calculator.DefaultPackaging(), logger)
	rateService := rates.NewService(carrierClient, calc, logger)

	sessionKey := []byte(cfg.Server.SessionKey)
	if len(sessionKey) == 0 {
		sessionKey = securecookie.GenerateRandomKey(32)
		logger.Warn("SESSION_KEY not set - carts will not survive a restart")
	}
	store := database.NewDBSessionStore(db, sessionKey)

	h := handlers.NewHandler(handlers.Config{
		Catalog:     cat,
		Calculator:  calc,
		Rates:       rateService,
		Carrier:     carrierClient,
		DB:          db,
		Sessions:    store,
		SessionName: cfg.Server.SessionName,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cleanupSessions(ctx, store, cfg.Server.CleanupInterval, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting album pages shipping service",
			zap.String("addr", "http://localhost"+srv.Addr),
			zap.Bool("test_mode", carrierClient.TestMode()),
			zap.String("carrier_url", carrierClient.APIURL()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// resolvePassPhrase fills the carrier pass phrase from the encrypted settings
// table when the environment has none, or saves it there when asked to.
func resolvePassPhrase(cfg *config.Config, db *database.DB, save bool, logger *zap.Logger) error {
	if cfg.Database.EncryptionKey == "" {
		if save {
			return database.ErrNoEncryptionKey
		}
		return nil
	}
	key, err := database.ParseEncryptionKey(cfg.Database.EncryptionKey)
	if err != nil {
		return err
	}

	if save {
		if cfg.Carrier.PassPhrase == "" {
			return errors.New("ENDICIA_PASS_PHRASE is empty, nothing to save")
		}
		if err := db.SetSecretSetting(database.SettingCarrierPassPhrase, cfg.Carrier.PassPhrase, "Endicia account pass phrase", key); err != nil {
			return fmt.Errorf("failed to save pass phrase: %w", err)
		}
		logger.Info("carrier pass phrase stored in settings")
		return nil
	}

	if cfg.Carrier.PassPhrase != "" {
		return nil
	}
	phrase, err := db.GetSecretSetting(database.SettingCarrierPassPhrase, key)
	if errors.Is(err, database.ErrSettingNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load pass phrase: %w", err)
	}
	cfg.Carrier.PassPhrase = phrase
	logger.Info("carrier pass phrase loaded from settings")
	return nil
}

func cleanupSessions(ctx context.Context, store *database.DBSessionStore, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupExpiredSessions()
			if err != nil {
				logger.Error("failed to clean up sessions", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("removed expired sessions", zap.Int64("count", removed))
			}
		}
	}
}
