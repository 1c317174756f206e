package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agent"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/classifier"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/config"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/deals"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/llm"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/metrics"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/rag"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app owns every long-lived client. The pipeline only borrows them.
type app struct {
	pipeline *agent.Pipeline
	metrics  *metrics.Metrics
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{metrics: metrics.New()}

	model, err := llm.NewModel(llm.ModelConfig{
		Provider: cfg.LLM.Provider,
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	generator := llm.NewRetryingGenerator(
		llm.NewLangChainGenerator(model, llm.Options{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
		llm.RetryPolicy{
			Attempts:       cfg.LLM.RetryAttempts,
			BaseDelay:      cfg.LLM.RetryBaseDelay,
			MaxDelay:       cfg.LLM.RetryMaxDelay,
			AttemptTimeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		},
		logger,
	)

	retrieval, err := rag.NewPipeline(cfg.Retrieval, a.metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize retrieval: %w", err)
	}
	a.closers = append(a.closers, retrieval.Close)

	provider, err := a.dealProvider(ctx, cfg.Deals, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	outputValidator := validator.NewOutputValidator()
	if cfg.Validation.RulesPath != "" {
		rules, err := validator.LoadRules(cfg.Validation.RulesPath)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to load validation rules: %w", err)
		}
		outputValidator = validator.NewOutputValidator(rules...)
	}

	var cache *classifier.Cache
	if cfg.Classifier.CacheSize > 0 {
		cache = classifier.NewCache(cfg.Classifier.CacheSize, cfg.Classifier.CacheTTL)
	}

	a.pipeline, err = agent.NewPipeline(agent.Deps{
		Classifier: cache,
		Retriever:  retrieval,
		Deals:      provider,
		Dispatcher: agent.NewDispatcher(generator, agent.DispatcherConfig{
			Mode:      cfg.Mode,
			Validator: outputValidator,
		}, a.metrics, logger),
		Input:   validator.NewInputValidator(cfg.Validation.MaxQueryRunes),
		Metrics: a.metrics,
		Logger:  logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// dealProvider picks PostgreSQL when a DSN is set, otherwise the static list.
// A Redis address adds a read-through cache in front of either.
func (a *app) dealProvider(ctx context.Context, cfg config.DealsConfig, logger *zap.Logger) (deals.Provider, error) {
	var provider deals.Provider
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		provider = deals.NewPostgresProvider(pool)
	} else {
		static := make([]types.DealContext, 0, len(cfg.Static))
		for _, d := range cfg.Static {
			static = append(static, types.DealContext{ID: d.ID, Name: d.Name, DocumentCount: d.DocumentCount})
		}
		provider = deals.NewStatic(static...)
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, client.Close)
		provider = deals.NewCachedProvider(provider, client, cfg.CacheTTL, logger)
	}
	return provider, nil
}

// Close releases clients in reverse creation order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
