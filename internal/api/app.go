package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promptcraft/promptcraft/internal/catalog"
	"github.com/promptcraft/promptcraft/internal/config"
	"github.com/promptcraft/promptcraft/internal/domain"
	"github.com/promptcraft/promptcraft/internal/leaderboard"
	"github.com/promptcraft/promptcraft/internal/progression"
	"github.com/promptcraft/promptcraft/internal/queue"
	"github.com/promptcraft/promptcraft/internal/repository"
	"github.com/promptcraft/promptcraft/internal/scorer"
	"github.com/promptcraft/promptcraft/internal/storage/sqlite"
)

// publishTimeout bounds queue delivery for a single fanned-out event
const publishTimeout = 5 * time.Second

// App holds all application dependencies
type App struct {
	Config      *config.Config
	Catalog     *catalog.Registry
	Progression *progression.Service
	Leaderboard *leaderboard.Service

	ping    func(ctx context.Context) error
	closers []func() error
}

// NewApp creates a new application instance with all dependencies wired.
// DATABASE_URL selects PostgreSQL; without it the embedded SQLite store
// is used. Redis and RabbitMQ are optional and degrade to no caching and
// no event delivery.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// Catalog
	app.Catalog = catalog.NewRegistry(catalog.NewLoader(cfg.CatalogPath))
	if err := app.Catalog.Load(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	worlds, quests, achievements, challenges := app.Catalog.Stats()
	slog.Info("catalog loaded",
		"worlds", worlds,
		"quests", quests,
		"achievements", achievements,
		"challenges", challenges)

	// Storage
	var (
		ledgers       progression.LedgerRepository
		progressRepo  progression.ProgressRepository
		challengeRepo progression.ChallengeRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := repository.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		ledgers = repository.NewLedgerRepository(pool)
		progressRepo = repository.NewProgressRepository(pool)
		challengeRepo = repository.NewChallengeRepository(pool)
		app.ping = pool.Ping
		app.closers = append(app.closers, func() error {
			pool.Close()
			return nil
		})
	} else {
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		ledgers = sqlite.NewLedgerStore(db)
		progressRepo = sqlite.NewProgressStore(db)
		challengeRepo = sqlite.NewChallengeStore(db)
		app.ping = db.PingContext
		app.closers = append(app.closers, db.Close)
	}

	// Leaderboard cache
	var cache *leaderboard.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		cache = leaderboard.NewCache(client, time.Duration(cfg.LeaderboardTTL)*time.Second)
		app.closers = append(app.closers, client.Close)
	}

	// Domain events fan out through a dispatcher. Every event gets a
	// structured log line; with RabbitMQ configured each one also becomes
	// a queued notification.
	dispatcher := domain.NewEventDispatcher()
	dispatcher.SubscribeAll(func(event domain.Event) {
		slog.Info("domain event",
			"event_id", event.EventID(),
			"type", event.EventType(),
			"user_id", event.UserID())
	})
	if cfg.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		pub := queue.NewPublisher(conn)
		dispatcher.SubscribeAll(func(event domain.Event) {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := pub.Publish(ctx, event); err != nil {
				slog.Warn("publish notification",
					"type", event.EventType(),
					"user_id", event.UserID(),
					"error", err)
			}
		})
		app.closers = append(app.closers, conn.Close)

		consumer := queue.NewConsumer(conn, logNotification, queue.DefaultConsumerConfig())
		if err := consumer.Start(ctx); err != nil {
			return nil, fmt.Errorf("start consumer: %w", err)
		}
		app.closers = append(app.closers, func() error {
			consumer.Stop()
			return nil
		})
	}

	// Scorer
	sc, err := buildScorer(cfg)
	if err != nil {
		return nil, err
	}

	var rankCache progression.RankCache
	if cache != nil {
		rankCache = cache
	}
	app.Progression = progression.NewService(
		app.Catalog, ledgers, progressRepo, challengeRepo,
		sc, dispatchPublisher{dispatcher}, rankCache, slog.Default())
	app.Leaderboard = leaderboard.NewService(ledgers, progressRepo, challengeRepo, app.Catalog, cache, slog.Default())

	return app, nil
}

// buildScorer selects the submission scorer. The openai provider gets
// the full resilience stack; the heuristic scorer is local and needs
// none of it.
func buildScorer(cfg *config.Config) (progression.Scorer, error) {
	switch cfg.ScorerProvider {
	case "", "heuristic":
		return scorer.NewHeuristicScorer(), nil

	case "openai":
		if cfg.ScorerAPIKey == "" {
			return nil, fmt.Errorf("openai scorer requires SCORER_API_KEY")
		}
		llm := scorer.NewLLMScorer(scorer.LLMConfig{
			APIKey:  cfg.ScorerAPIKey,
			BaseURL: cfg.ScorerBaseURL,
			Model:   cfg.ScorerModel,
			Timeout: time.Duration(cfg.ScorerTimeout) * time.Second,
		})
		return scorer.NewResilientScorer(llm, scorer.DefaultResilientConfig()), nil

	default:
		return nil, fmt.Errorf("unknown scorer provider %q", cfg.ScorerProvider)
	}
}

// dispatchPublisher adapts the domain event dispatcher to the
// progression EventPublisher. Handlers run synchronously on the
// publishing goroutine; delivery failures are handled per subscriber.
type dispatchPublisher struct {
	dispatcher *domain.EventDispatcher
}

func (p dispatchPublisher) Publish(_ context.Context, event domain.Event) error {
	p.dispatcher.Publish(event)
	return nil
}

// logNotification is the default notification handler. Downstream
// delivery (email, push) hangs off this queue; the service itself only
// records the notification.
func logNotification(_ context.Context, n *queue.Notification) error {
	slog.Info("progression notification",
		"notification_id", n.ID,
		"type", n.Type,
		"user_id", n.UserID,
	)
	return nil
}

// Ping reports storage health for readiness checks
func (a *App) Ping(ctx context.Context) error {
	if a.ping == nil {
		return nil
	}
	return a.ping(ctx)
}

// Close cleans up application resources in reverse wiring order
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
