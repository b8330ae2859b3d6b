package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/heartcheck/internal/domain/assessment"
	"github.com/yanqian/heartcheck/internal/domain/auth"
	"github.com/yanqian/heartcheck/internal/domain/explainer"
	"github.com/yanqian/heartcheck/internal/domain/report"
	"github.com/yanqian/heartcheck/internal/infra/assessrepo"
	"github.com/yanqian/heartcheck/internal/infra/clinicianrepo"
	"github.com/yanqian/heartcheck/internal/infra/config"
	"github.com/yanqian/heartcheck/internal/infra/llm/chatgpt"
	"github.com/yanqian/heartcheck/internal/infra/reportstore"
	"github.com/yanqian/heartcheck/internal/infra/sharestore"
	httpiface "github.com/yanqian/heartcheck/internal/interface/http"
)

func provideAssessmentConfig(cfg *config.Config) assessment.Config {
	return assessment.Config{
		HistoryLimit: cfg.History.HistoryLimit,
		SimilarLimit: cfg.History.SimilarLimit,
	}
}

func provideReportConfig(cfg *config.Config) report.Config {
	return report.Config{
		ShareTTL: cfg.Report.ShareTTL,
	}
}

func provideExplainerConfig(cfg *config.Config) explainer.Config {
	return explainer.Config{
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		Prompt:          cfg.Explainer.Prompt,
		MaxPromptTokens: cfg.Explainer.MaxPromptTokens,
		MaxNarrativeLen: cfg.Explainer.MaxNarrativeLen,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		Google: auth.GoogleConfig{
			ClientID:             cfg.Auth.Google.ClientID,
			ClientSecret:         cfg.Auth.Google.ClientSecret,
			RedirectURL:          cfg.Auth.Google.RedirectURL,
			TokenEncryptionKey:   cfg.Auth.Google.TokenEncryptionKey,
			PostLoginRedirectURL: cfg.Auth.Google.PostLoginRedirectURL,
		},
	}
}

// provideChatClient returns nil when no API key is configured, which keeps
// the explainer endpoint disabled instead of failing startup.
func provideChatClient(cfg *config.Config, logger *slog.Logger) explainer.ChatClient {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Info("llm api key not set, explainer disabled")
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		logger.Error("failed to initialize chatgpt client, explainer disabled", "error", err)
		return nil
	}
	return client
}

func provideAssessmentRepository(cfg *config.Config, logger *slog.Logger) assessment.Repository {
	pool := newPostgresPool(cfg.History.Postgres, logger)
	if pool == nil {
		return assessrepo.NewMemoryRepository()
	}
	logger.Info("assessment postgres repository enabled")
	return assessrepo.NewPostgresRepository(pool)
}

func provideAuthRepository(cfg *config.Config, logger *slog.Logger) auth.Repository {
	pool := newPostgresPool(cfg.History.Postgres, logger)
	if pool == nil {
		return clinicianrepo.NewMemoryRepository()
	}
	logger.Info("clinician postgres repository enabled")
	return clinicianrepo.NewPostgresRepository(pool)
}

func newPostgresPool(pg config.PostgresConfig, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(pg.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repository")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return nil
	}
	if pg.MaxConns > 0 {
		poolConfig.MaxConns = pg.MaxConns
	}
	if pg.MinConns > 0 {
		poolConfig.MinConns = pg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

func provideObjectStorage(cfg *config.Config, logger *slog.Logger) report.ObjectStorage {
	storageCfg := cfg.Report.Storage
	if strings.TrimSpace(storageCfg.Endpoint) == "" || strings.TrimSpace(storageCfg.AccessKey) == "" {
		logger.Info("report storage not configured, using memory storage")
		return reportstore.NewMemoryStorage()
	}
	storage, err := reportstore.NewS3Storage(storageCfg.Endpoint, storageCfg.AccessKey, storageCfg.SecretKey, storageCfg.Bucket, storageCfg.Region, logger)
	if err != nil {
		logger.Error("failed to initialize report storage, using memory storage", "error", err)
		return reportstore.NewMemoryStorage()
	}
	logger.Info("report s3 storage enabled", "bucket", storageCfg.Bucket)
	return storage
}

func provideShareStore(cfg *config.Config, logger *slog.Logger) report.ShareStore {
	if cfg.Report.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg.Report.Valkey.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return sharestore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return sharestore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
		} else {
			logger.Info("share valkey store enabled", "addr", cfg.Report.Valkey.Addr)
			return sharestore.NewValkeyStore(client, "share")
		}
	}
	return sharestore.NewMemoryStore()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideAuthHandler(cfg *config.Config, svc auth.Service) *httpiface.AuthHandler {
	return httpiface.NewAuthHandler(svc, cfg.Auth.Google.PostLoginRedirectURL)
}
