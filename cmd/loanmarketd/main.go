package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/CedarStreetLab/loanmarket/internal/httpapi"
	"github.com/CedarStreetLab/loanmarket/internal/ledgerclient"
	"github.com/CedarStreetLab/loanmarket/internal/store/gormstore"
	"github.com/CedarStreetLab/loanmarket/internal/zaplog"
	"github.com/CedarStreetLab/loanmarket/pkg/league"
	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

const (
	flagDatabaseURL    = "database-url"
	flagListenAddr     = "listen-addr"
	flagLedgerURL      = "ledger-url"
	flagAuthSigningKey = "auth-signing-key"
	flagAuthIssuer     = "auth-issuer"
	flagAllowedOrigins = "allowed-origins"

	configKeyDatabaseURL    = "database_url"
	configKeyListenAddr     = "listen_addr"
	configKeyLedgerURL      = "ledger_url"
	configKeyAuthSigningKey = "auth_signing_key"
	configKeyAuthIssuer     = "auth_issuer"
	configKeyAllowedOrigins = "allowed_origins"

	defaultDatabaseURL = "sqlite:///tmp/loanmarket.db"
)

type runtimeConfig struct {
	DatabaseURL    string
	ListenAddr     string
	LedgerURL      string
	AuthSigningKey string
	AuthIssuer     string
	AllowedOrigins string
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "loanmarketd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "loanmarketd",
		Short:         "Loan marketplace HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "PostgreSQL or SQLite connection string")
	cmd.Flags().String(flagListenAddr, "", "HTTP listen address")
	cmd.Flags().String(flagLedgerURL, "", "base URL of the payment ledger")
	cmd.Flags().String(flagAuthSigningKey, "", "HMAC signing key for bearer tokens")
	cmd.Flags().String(flagAuthIssuer, "", "expected issuer claim on bearer tokens")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated CORS origins")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	bindings := []struct {
		configKey string
		envVar    string
		flagName  string
	}{
		{configKeyDatabaseURL, "DATABASE_URL", flagDatabaseURL},
		{configKeyListenAddr, "LISTEN_ADDR", flagListenAddr},
		{configKeyLedgerURL, "LEDGER_URL", flagLedgerURL},
		{configKeyAuthSigningKey, "AUTH_SIGNING_KEY", flagAuthSigningKey},
		{configKeyAuthIssuer, "AUTH_ISSUER", flagAuthIssuer},
		{configKeyAllowedOrigins, "ALLOWED_ORIGINS", flagAllowedOrigins},
	}
	for _, binding := range bindings {
		if err := viper.BindEnv(binding.configKey, binding.envVar); err != nil {
			return err
		}
		if err := viper.BindPFlag(binding.configKey, cmd.Flags().Lookup(binding.flagName)); err != nil {
			return err
		}
	}

	cfg.DatabaseURL = viper.GetString(configKeyDatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	cfg.ListenAddr = viper.GetString(configKeyListenAddr)
	cfg.LedgerURL = viper.GetString(configKeyLedgerURL)
	cfg.AuthSigningKey = viper.GetString(configKeyAuthSigningKey)
	cfg.AuthIssuer = viper.GetString(configKeyAuthIssuer)
	cfg.AllowedOrigins = viper.GetString(configKeyAllowedOrigins)

	if cfg.LedgerURL == "" {
		return fmt.Errorf("ledger url is required")
	}
	if cfg.AuthSigningKey == "" {
		return fmt.Errorf("auth signing key is required")
	}
	return nil
}

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gormDB, cleanup, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer cleanup()

	if err := gormstore.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ledger, err := ledgerclient.New(cfg.LedgerURL)
	if err != nil {
		return fmt.Errorf("ledger client init: %w", err)
	}

	marketService, err := market.NewService(
		gormstore.New(gormDB),
		ledger,
		time.Now,
		market.WithOperationLogger(zaplog.NewOperationLogger(logger)),
	)
	if err != nil {
		return fmt.Errorf("market service init: %w", err)
	}
	leagueService, err := league.NewService(gormstore.NewLeagueStore(gormDB))
	if err != nil {
		return fmt.Errorf("league service init: %w", err)
	}

	apiConfig := httpapi.Config{
		ListenAddr:     cfg.ListenAddr,
		AllowedOrigins: httpapi.ParseAllowedOrigins(cfg.AllowedOrigins),
		AuthSigningKey: cfg.AuthSigningKey,
		AuthIssuer:     cfg.AuthIssuer,
	}
	if err := apiConfig.Validate(); err != nil {
		return err
	}

	router := httpapi.NewRouter(apiConfig, marketService, leagueService, logger)
	return httpapi.Run(ctx, apiConfig, router, logger)
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, err
	}

	var db *gorm.DB
	switch driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
	default:
		return nil, nil, fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = "loanmarket.db"
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return "sqlite", sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return "sqlite", sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
