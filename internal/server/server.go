package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jjudge/judge-api/config"
	"github.com/jjudge/judge-api/internal/db"
	"github.com/jjudge/judge-api/internal/handlers"
	"github.com/jjudge/judge-api/internal/judge"
	"github.com/jjudge/judge-api/internal/mq"
	"github.com/jjudge/judge-api/internal/services"
	"github.com/jjudge/judge-api/internal/storage"
	"github.com/jjudge/judge-api/internal/store"
	"github.com/jjudge/judge-api/internal/worker"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
}

// newObjectStorage picks the GCS backend when GCS_BUCKET is set, falling
// back to MinIO otherwise, matching the teacher's getEnv-driven config
// style rather than a dedicated "storage backend" switch variable.
func newObjectStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	if strings.TrimSpace(cfg.GCS.Bucket) != "" {
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	}
	backend, err := storage.NewMinioClient(cfg.Minio)
	if err != nil {
		return nil, err
	}
	return storage.NewStorage(backend), nil
}

// newQueue picks the RabbitMQ backend whenever the configured RabbitMQ URL
// is non-blank (an unset RABBITMQ_URL yields config's local default URL),
// and Pub/Sub only when RABBITMQ_URL is set to a blank value.
func newQueue(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	if strings.TrimSpace(cfg.RabbitMQ.URL) != "" {
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	}
	backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
	if err != nil {
		return nil, err
	}
	return mq.New(backend), nil
}

// corsMiddleware answers preflight requests and marks every response as
// accessible from any origin. The pack carries no CORS library in its
// dependency set, so this stays a small handler rather than importing one.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStorage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("object storage: %w", err)
	}
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("object storage: %w", err)
	}

	queue, err := newQueue(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("queue: %w", err)
	}

	problemRepo := store.NewProblemRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)
	submissionRepo := store.NewSubmissionRepository(dbConn)

	problemService := services.NewProblemService(problemRepo, objectStorage)
	userService := services.NewUserService(userRepo)
	submissionService := services.NewSubmissionService(submissionRepo)

	sandboxRunner := judge.NewHTTPSandboxRunner(cfg.Judge.RunnerURL, cfg.Judge.RunnerTimeoutMargin)
	dispatcher := judge.NewDispatcher(sandboxRunner)

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = dbConn.Close()
		_ = queue.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		corsMiddleware,
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/problems", func(r chi.Router) {
		handlers.ProblemRouter(r, problemService, userService, authMiddleware)
	})
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/judge", func(r chi.Router) {
		handlers.JudgeRouter(r, dispatcher)
	})
	handlers.SubmissionRouter(router, submissionService, problemService, userService, queue, cfg.Judge.SubmissionQueueName, authMiddleware)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
	}, nil
}

// WorkerDeps bundles the resources the submission worker owns: the worker
// itself plus the database and queue connections it must close on shutdown.
type WorkerDeps struct {
	Worker *worker.Worker
	db     *sql.DB
	queue  *mq.MQ
}

// Close releases the worker's database and queue connections.
func (d *WorkerDeps) Close() error {
	var err error
	if d.queue != nil {
		err = d.queue.Close()
	}
	if d.db != nil {
		if dbErr := d.db.Close(); dbErr != nil && err == nil {
			err = dbErr
		}
	}
	return err
}

// NewWorker wires the same services the HTTP server uses, minus the chi
// router, for the standalone submission-judging worker process.
func NewWorker(ctx context.Context, cfg config.Config) (*WorkerDeps, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStorage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("object storage: %w", err)
	}
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("object storage: %w", err)
	}

	queue, err := newQueue(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("queue: %w", err)
	}

	problemRepo := store.NewProblemRepository(dbConn)
	submissionRepo := store.NewSubmissionRepository(dbConn)

	problemService := services.NewProblemService(problemRepo, objectStorage)
	submissionService := services.NewSubmissionService(submissionRepo)

	sandboxRunner := judge.NewHTTPSandboxRunner(cfg.Judge.RunnerURL, cfg.Judge.RunnerTimeoutMargin)
	dispatcher := judge.NewDispatcher(sandboxRunner)

	w := worker.New(submissionService, problemService, objectStorage, dispatcher, queue, cfg.Judge.SubmissionQueueName)

	return &WorkerDeps{Worker: w, db: dbConn, queue: queue}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
