package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petaldocs/docsign/internal/accounts"
	"github.com/petaldocs/docsign/internal/auth"
	"github.com/petaldocs/docsign/internal/config"
	"github.com/petaldocs/docsign/internal/database"
	"github.com/petaldocs/docsign/internal/events"
	"github.com/petaldocs/docsign/internal/ledger"
	"github.com/petaldocs/docsign/internal/logging"
	"github.com/petaldocs/docsign/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docsign-api",
		Short: "Document-signing ledger service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Signer token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Signer token signing secret (overrides env)")
	cmd.PersistentFlags().String("idp-audience", defaults.GetString("idp.audience"), "Identity provider audience")
	cmd.PersistentFlags().String("idp-jwks-url", defaults.GetString("idp.jwks_url"), "Identity provider JWKS URL")
	cmd.PersistentFlags().StringSlice("idp-issuers", defaults.GetStringSlice("idp.issuers"), "Allowed identity provider issuers")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "idp.audience", "idp-audience")
	bindFlag(cmd, "idp.jwks_url", "idp-jwks-url")
	bindFlag(cmd, "idp.issuers", "idp-issuers")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokenManager, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        appConfig.TokenIssuer,
		Audience:      appConfig.TokenAudience,
		TokenTTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}

	dispatcher := events.NewDispatcher()

	ledgerService, err := ledger.NewService(ledger.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		Authorizer: auth.NewPrincipalAuthorizer(),
		Events:     events.NewLedgerSink(dispatcher),
		IDProvider: ledger.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	deps := server.Dependencies{
		Tokens:     tokenManager,
		Ledger:     ledgerService,
		Dispatcher: dispatcher,
		Logger:     logger,
	}

	if appConfig.IdPConfigured() {
		verifier, err := auth.NewIdentityVerifier(auth.IdentityVerifierConfig{
			Audience:       appConfig.IdPAudience,
			JWKSURL:        appConfig.IdPJWKSURL,
			AllowedIssuers: appConfig.IdPIssuers,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		accountService, err := accounts.NewService(accounts.ServiceConfig{
			Database: db,
			Clock:    time.Now,
		})
		if err != nil {
			return err
		}
		deps.Verifier = verifier
		deps.Accounts = accountService
	} else {
		logger.Warn("identity provider not configured; token exchange disabled")
	}

	handler, err := server.NewHTTPHandler(deps)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
