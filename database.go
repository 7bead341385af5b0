// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package syllabus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/ai/openai"
	"github.com/poiesic/syllabus/generation"
	"github.com/poiesic/syllabus/httpapi"
	"github.com/poiesic/syllabus/notify"
	"github.com/poiesic/syllabus/progress"
	"github.com/poiesic/syllabus/queue"
	"github.com/poiesic/syllabus/rag"
	"github.com/poiesic/syllabus/reembed"
	"github.com/poiesic/syllabus/storage"
	"github.com/poiesic/syllabus/storage/badger"
)

// Database wires every component of the pipeline around one badger store.
type Database struct {
	backend      *badger.Backend
	jobRepo      storage.JobRepository
	embRepo      storage.EmbeddingRepository
	provider     ai.AIProvider
	gateway      *notify.Gateway
	tracker      *progress.Tracker
	store        *rag.Store
	materializer generation.Materializer
	orchestrator *generation.Orchestrator
	queue        *queue.Queue
	options      *databaseOptions
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig       *ai.Config
	provider       ai.AIProvider
	inMemory       bool
	workers        int
	queueCapacity  int
	maxRetries     int
	retryBase      time.Duration
	retryCap       time.Duration
	stepTimeout    time.Duration
	artifactDir    string
	dimension      int
	allowedOrigins []string
	logger         *slog.Logger
}

// WithAIConfig sets the configuration of the OpenAI-compatible provider.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider replaces the OpenAI-compatible provider, typically with a mock.
// The Database closes it.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all state in memory. The file path is ignored and
// artifacts are kept in memory unless WithArtifactDir is given.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithWorkers sets how many jobs run at once.
func WithWorkers(n int) DatabaseOption {
	return func(o *databaseOptions) {
		o.workers = n
	}
}

// WithQueueCapacity sets how many jobs may wait for a worker.
func WithQueueCapacity(n int) DatabaseOption {
	return func(o *databaseOptions) {
		o.queueCapacity = n
	}
}

// WithMaxRetries sets the retry budget of new jobs.
func WithMaxRetries(n int) DatabaseOption {
	return func(o *databaseOptions) {
		o.maxRetries = n
	}
}

// WithRetryBackoff sets the step retry delay: base doubled per retry, capped at limit.
func WithRetryBackoff(base, limit time.Duration) DatabaseOption {
	return func(o *databaseOptions) {
		o.retryBase = base
		o.retryCap = limit
	}
}

// WithStepTimeout bounds every generator and embedding call.
func WithStepTimeout(d time.Duration) DatabaseOption {
	return func(o *databaseOptions) {
		o.stepTimeout = d
	}
}

// WithArtifactDir sets where course files are written.
// Default is an "artifacts" directory next to the database directory.
func WithArtifactDir(dir string) DatabaseOption {
	return func(o *databaseOptions) {
		o.artifactDir = dir
	}
}

// WithDimension pins the embedding dimension. Zero learns it from the first write.
func WithDimension(dim int) DatabaseOption {
	return func(o *databaseOptions) {
		o.dimension = dim
	}
}

// WithAllowedOrigins restricts browser origins for HTTP and websocket requests.
func WithAllowedOrigins(origins ...string) DatabaseOption {
	return func(o *databaseOptions) {
		o.allowedOrigins = origins
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens (or creates) the store at filePath and builds the pipeline.
// Call Start to begin processing jobs.
func NewDatabase(filePath string, opts ...DatabaseOption) (_ *Database, err error) {
	options := &databaseOptions{
		aiConfig:      ai.DefaultConfig(),
		queueCapacity: queue.DefaultCapacity,
		maxRetries:    progress.DefaultMaxRetries,
		retryBase:     generation.DefaultBackoff.Base,
		retryCap:      generation.DefaultBackoff.Cap,
		stepTimeout:   generation.DefaultStepTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	db := &Database{options: options, logger: logger.With("component", "database")}
	defer func() {
		if err != nil {
			db.close()
		}
	}()

	if db.backend, err = badger.OpenBackend(filePath, options.inMemory); err != nil {
		return nil, err
	}
	db.jobRepo = badger.NewJobRepository(db.backend)
	embRepo, err := badger.NewEmbeddingRepository(db.backend)
	if err != nil {
		return nil, err
	}
	db.embRepo = embRepo

	db.provider = options.provider
	if db.provider == nil {
		if db.provider, err = openai.NewProvider(options.aiConfig); err != nil {
			return nil, err
		}
	}

	gatewayOpts := []notify.Option{notify.WithLogger(logger)}
	if len(options.allowedOrigins) > 0 {
		gatewayOpts = append(gatewayOpts, notify.WithAllowedOrigins(options.allowedOrigins...))
	}
	if db.gateway, err = notify.NewGateway(db.jobRepo, gatewayOpts...); err != nil {
		return nil, err
	}

	db.tracker, err = progress.NewTracker(db.jobRepo,
		progress.WithLogger(logger),
		progress.WithPublisher(db.gateway),
		progress.WithMaxRetries(options.maxRetries))
	if err != nil {
		return nil, err
	}

	storeOpts := []rag.Option{rag.WithLogger(logger)}
	if options.dimension > 0 {
		storeOpts = append(storeOpts, rag.WithDimension(options.dimension))
	}
	if db.store, err = rag.NewStore(context.Background(), db.embRepo, db.provider.Embedder(), storeOpts...); err != nil {
		return nil, err
	}

	switch {
	case options.artifactDir != "":
		db.materializer, err = generation.NewDirMaterializer(options.artifactDir)
	case options.inMemory:
		db.materializer = generation.NewMemoryMaterializer()
	default:
		db.materializer, err = generation.NewDirMaterializer(filepath.Join(filepath.Dir(filepath.Clean(filePath)), "artifacts"))
	}
	if err != nil {
		return nil, err
	}

	quiz, cards := options.aiConfig.QuizQuestions, options.aiConfig.Flashcards
	orchestratorOpts := []generation.Option{
		generation.WithLogger(logger),
		generation.WithBackoff(options.retryBase, options.retryCap),
		generation.WithStepTimeout(options.stepTimeout),
	}
	if quiz > 0 && cards > 0 {
		orchestratorOpts = append(orchestratorOpts, generation.WithDefaultCounts(quiz, cards))
	}
	db.orchestrator, err = generation.NewOrchestrator(db.tracker, db.provider.Generator(), db.store, db.materializer, orchestratorOpts...)
	if err != nil {
		return nil, err
	}

	queueOpts := []queue.Option{queue.WithLogger(logger), queue.WithCapacity(options.queueCapacity)}
	if options.workers > 0 {
		queueOpts = append(queueOpts, queue.WithWorkers(options.workers))
	}
	if db.queue, err = queue.NewQueue(db.tracker, db.orchestrator, queueOpts...); err != nil {
		return nil, err
	}

	return db, nil
}

// Start begins running jobs and recovers work left by a previous process.
// Jobs run until ctx ends or Close is called.
func (db *Database) Start(ctx context.Context) error {
	if err := db.queue.Start(ctx); err != nil {
		return err
	}
	requeued, err := db.queue.Recover(ctx)
	if err != nil {
		return err
	}
	db.logger.Info("pipeline running", "requeued", requeued)
	return nil
}

// Close stops the queue, waiting for running jobs, and releases storage.
func (db *Database) Close() error {
	return db.close()
}

func (db *Database) close() error {
	if db.queue != nil {
		db.queue.Stop()
	}
	if db.provider != nil {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
		}
	}

	var errs []error
	if db.embRepo != nil {
		if err := db.embRepo.Close(); err != nil {
			db.logger.Error("error closing embedding repository", "err", err)
			errs = append(errs, err)
		}
	}
	if db.jobRepo != nil {
		if err := db.jobRepo.Close(); err != nil {
			db.logger.Error("error closing job repository", "err", err)
			errs = append(errs, err)
		}
	}
	if db.backend != nil {
		if err := db.backend.Close(); err != nil {
			db.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (db *Database) Queue() *queue.Queue {
	return db.queue
}

func (db *Database) Tracker() *progress.Tracker {
	return db.tracker
}

func (db *Database) Store() *rag.Store {
	return db.store
}

func (db *Database) Gateway() *notify.Gateway {
	return db.gateway
}

func (db *Database) Materializer() generation.Materializer {
	return db.materializer
}

func (db *Database) JobRepository() storage.JobRepository {
	return db.jobRepo
}

func (db *Database) EmbeddingRepository() storage.EmbeddingRepository {
	return db.embRepo
}

// NewRouter builds the HTTP API over this database.
func (db *Database) NewRouter() (*gin.Engine, error) {
	return httpapi.NewRouter(httpapi.Config{
		Jobs:           db.queue,
		Progress:       db.tracker,
		Index:          db.store,
		Streamer:       db.gateway,
		AllowedOrigins: db.options.allowedOrigins,
		Logger:         db.options.logger,
	})
}

// NewReembedder creates a reembedder using the provider's embedder.
func (db *Database) NewReembedder(config *reembed.Config, w io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.embRepo, db.provider.Embedder(), config, w, db.options.logger)
}
