package app

import (
	"context"
	"doraform/internal/cache"
	"doraform/internal/catalog"
	"doraform/internal/chart"
	"doraform/internal/config"
	"doraform/internal/form"
	"doraform/internal/i18n"
	"doraform/internal/logger"
	"doraform/internal/model"
	"doraform/internal/report"
	"doraform/internal/repository"
	"doraform/internal/repository/memory"
	"doraform/internal/service"
	"doraform/internal/transport/rest"
	"doraform/internal/transport/ws"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// stores is the persistence set behind one storage backend
type stores struct {
	questionnaires repository.QuestionnaireRepo
	drafts         repository.DraftRepo
	forms          repository.FormRepo
	documents      repository.DocumentRepo
	sessionCache   cache.SessionCache
	submitLock     cache.SubmitLock
}

// App holds the wired services of one server process
type App struct {
	Questionnaires *service.QuestionnaireService
	Drafts         *service.DraftService
	Submissions    *service.SubmissionService
	Forms          *service.FormService
	Hub            *ws.Hub
	Handler        http.Handler

	closers []func(context.Context) error
}

// New connects the configured backend and wires every service. Close
// releases what New opened.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{}

	fallback, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Info("catalog loaded", "slug", fallback.Slug, "version", fallback.Version, "questions", len(fallback.Questions))

	var st *stores
	switch cfg.StorageBackend {
	case config.StorageMemory:
		st = memoryStores(cfg)
		log.Warn("using in-memory storage; data is lost on restart")
	case config.StorageMongo, "":
		st, err = a.mongoStores(ctx, cfg, log)
		if err != nil {
			a.Close(context.Background())
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	renderer, err := chart.NewRenderer(cfg.ChartMaxScore, log)
	if err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("failed to init chart renderer: %w", err)
	}

	a.Questionnaires = service.NewQuestionnaireService(st.questionnaires, fallback, log)
	a.Drafts = service.NewDraftService(st.drafts, log)
	a.Submissions = service.NewSubmissionService(st.forms, st.drafts, st.documents, log)
	a.Forms = service.NewFormService(
		a.Questionnaires,
		a.Drafts,
		a.Submissions,
		renderer,
		deliverer(cfg.Delivery, st.documents, log),
		st.sessionCache,
		st.submitLock,
		log,
	)

	// wsHub implements service.Broadcaster
	a.Hub = ws.NewHub(log)
	a.Forms.SetBroadcaster(a.Hub)
	a.closers = append(a.closers, func(context.Context) error {
		a.Hub.Stop()
		return nil
	})

	defaultLocale, ok := i18n.Parse(cfg.DefaultLocale)
	if !ok {
		defaultLocale = model.LocaleES
		log.Warn("invalid DEFAULT_LOCALE, using es", "value", cfg.DefaultLocale)
	}

	a.Handler = rest.NewRouter(&rest.Container{
		FormService:          a.Forms,
		DraftService:         a.Drafts,
		SubmissionService:    a.Submissions,
		QuestionnaireService: a.Questionnaires,
		WSHub:                a.Hub,
		Logger:               log,
		DefaultLocale:        defaultLocale,
		AllowedOrigins:       cfg.CORSAllowedOrigins,
	})
	return a, nil
}

func deliverer(cfg *config.DeliveryConfig, archive report.Archive, log *logger.Logger) form.Deliverer {
	if cfg == nil || !cfg.IsEnabled() {
		log.Warn("delivery NOT configured; every submission will fail until TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_IDS are set")
		return report.NewDisabled(log)
	}
	log.Info("delivery configured", "chats", len(cfg.ChatIDs), "timeout", cfg.Timeout(), "max_retries", cfg.MaxRetries)
	return report.NewService(report.NewTelegramClient(cfg, log), cfg.ChatIDs, archive, log)
}

func memoryStores(cfg *config.Config) *stores {
	return &stores{
		questionnaires: memory.NewQuestionnaireStore(),
		drafts:         memory.NewDraftStore(),
		forms:          memory.NewFormStore(),
		documents:      memory.NewDocumentStore(),
		sessionCache:   cache.NewMemorySessionCache(cfg.SessionTTL),
		submitLock:     cache.NewMemorySubmitLock(submitLockTTL),
	}
}

// submitLockTTL bounds how long a crashed replica can block a session's submit.
const submitLockTTL = 2 * time.Minute

func (a *App) mongoStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.closers = append(a.closers, mongoClient.Disconnect)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	log.Info("connected to MongoDB", "db", cfg.MongoDB)

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })

	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	log.Info("connected to Redis", "addr", cfg.RedisAddr)

	db := mongoClient.Database(cfg.MongoDB)
	return &stores{
		questionnaires: repository.NewQuestionnaireRepo(db),
		drafts:         repository.NewDraftRepo(db),
		forms:          repository.NewFormRepo(db),
		documents:      repository.NewDocumentRepo(db),
		sessionCache:   cache.NewSessionCache(rdb, cfg.SessionTTL),
		submitLock:     cache.NewSubmitLock(rdb, submitLockTTL),
	}, nil
}

// Close waits for in-flight submissions, then releases connections in
// reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var first error
	if a.Forms != nil {
		if err := a.Forms.Drain(ctx); err != nil {
			first = fmt.Errorf("submissions still in flight: %w", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
