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

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/syllabus"
	"github.com/poiesic/syllabus/ai"
	"github.com/poiesic/syllabus/queue"
	"github.com/poiesic/syllabus/reembed"
	"github.com/urfave/cli/v2"
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "syllabus",
		Usage: "Asynchronous course generation with semantic retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"SYLLABUS_LOG_LEVEL"},
			},
		},
		Before:   setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the generation workers",
				Action: serveCommand,
				Flags: withFlags(dbFlags(), aiFlags(), pipelineFlags(),
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "HTTP listen address",
						Value:   ":8080",
						EnvVars: []string{"SYLLABUS_ADDR"},
					},
					&cli.StringSliceFlag{
						Name:    "allowed-origin",
						Usage:   "Browser origin allowed to call the API (repeatable; all when unset)",
						EnvVars: []string{"SYLLABUS_ALLOWED_ORIGINS"},
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "How long running jobs may continue after a shutdown signal",
						Value: 30 * time.Second,
					},
				),
			},
			{
				Name:      "generate",
				Usage:     "Generate a course from a request file and follow its progress",
				ArgsUsage: "<request.json>",
				Action:    generateCommand,
				Flags:     withFlags(dbFlags(), aiFlags(), pipelineFlags()),
			},
			{
				Name:      "status",
				Usage:     "Print the state of a generation job",
				ArgsUsage: "<job-id>",
				Action:    statusCommand,
				Flags:     dbFlags(),
			},
			{
				Name:      "search",
				Usage:     "Search a course's stored content",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: withFlags(dbFlags(), aiFlags(),
					&cli.StringFlag{
						Name:     "course",
						Aliases:  []string{"c"},
						Usage:    "Course to search",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "content-type",
						Usage: "Restrict results to one content type (lesson, quiz, flashcard, ...)",
					},
					&cli.BoolFlag{
						Name:  "context",
						Usage: "Print the assembled tutoring context instead of individual hits",
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Recompute stored embeddings with the configured embedding model",
				Action: reembedCommand,
				Flags: withFlags(dbFlags(), aiFlags(),
					&cli.StringFlag{
						Name:  "course",
						Usage: "Only reembed this course (the dimension must not change)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of rows to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N rows",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}
}

func withFlags(groups ...any) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		switch v := g.(type) {
		case []cli.Flag:
			flags = append(flags, v...)
		case cli.Flag:
			flags = append(flags, v)
		}
	}
	return flags
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
			EnvVars:  []string{"SYLLABUS_DB"},
		},
	}
}

func aiFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   defaults.EmbeddingHost,
			EnvVars: []string{"SYLLABUS_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   defaults.EmbeddingModel,
			EnvVars: []string{"SYLLABUS_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "generator-host",
			Usage:   "Content generation service host URL",
			Value:   defaults.GeneratorHost,
			EnvVars: []string{"SYLLABUS_GENERATOR_HOST"},
		},
		&cli.StringFlag{
			Name:    "generator-model",
			Usage:   "Content generation model name",
			Value:   defaults.GeneratorModel,
			EnvVars: []string{"SYLLABUS_GENERATOR_MODEL"},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "API key for the AI services",
			Value:   defaults.Token,
			EnvVars: []string{"SYLLABUS_API_TOKEN", "OPENAI_API_KEY"},
		},
		&cli.IntFlag{
			Name:    "quiz-questions",
			Usage:   "Quiz questions per subtopic",
			Value:   defaults.QuizQuestions,
			EnvVars: []string{"SYLLABUS_QUIZ_QUESTIONS"},
		},
		&cli.IntFlag{
			Name:    "flashcards",
			Usage:   "Flashcards per subtopic",
			Value:   defaults.Flashcards,
			EnvVars: []string{"SYLLABUS_FLASHCARDS"},
		},
		&cli.IntFlag{
			Name:    "dimension",
			Usage:   "Expected embedding dimension (0 learns it from the first write)",
			EnvVars: []string{"SYLLABUS_EMBEDDING_DIMENSION"},
		},
	}
}

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "Jobs generated at once (0 uses half the CPUs)",
			EnvVars: []string{"SYLLABUS_WORKERS"},
		},
		&cli.IntFlag{
			Name:    "queue-capacity",
			Usage:   "Jobs that may wait for a worker",
			Value:   queue.DefaultCapacity,
			EnvVars: []string{"SYLLABUS_QUEUE_CAPACITY"},
		},
		&cli.IntFlag{
			Name:    "max-retries",
			Usage:   "Retry budget of each job",
			Value:   3,
			EnvVars: []string{"SYLLABUS_MAX_RETRIES"},
		},
		&cli.DurationFlag{
			Name:  "step-timeout",
			Usage: "Timeout of each generation or embedding call",
			Value: 2 * time.Minute,
		},
		&cli.StringFlag{
			Name:    "artifact-dir",
			Usage:   "Where course files are written (default: artifacts next to the database)",
			EnvVars: []string{"SYLLABUS_ARTIFACT_DIR"},
		},
	}
}

// aiConfig builds and validates the AI configuration from flags.
func aiConfig(c *cli.Context) (*ai.Config, error) {
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorHost(c.String("generator-host")),
		ai.WithGeneratorModel(c.String("generator-model")),
		ai.WithToken(c.String("token")),
		ai.WithQuizQuestions(c.Int("quiz-questions")),
		ai.WithFlashcards(c.Int("flashcards")),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

// openDatabase opens the database with the options named by the command's flags.
func openDatabase(c *cli.Context) (*syllabus.Database, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	opts := []syllabus.DatabaseOption{syllabus.WithLogger(slog.Default())}
	if definesFlag(c, "embedding-host") {
		cfg, err := aiConfig(c)
		if err != nil {
			return nil, err
		}
		opts = append(opts, syllabus.WithAIConfig(cfg))
	}
	if definesFlag(c, "dimension") {
		opts = append(opts, syllabus.WithDimension(c.Int("dimension")))
	}
	if definesFlag(c, "workers") {
		opts = append(opts,
			syllabus.WithWorkers(c.Int("workers")),
			syllabus.WithQueueCapacity(c.Int("queue-capacity")),
			syllabus.WithMaxRetries(c.Int("max-retries")),
			syllabus.WithStepTimeout(c.Duration("step-timeout")))
		if dir := c.String("artifact-dir"); dir != "" {
			opts = append(opts, syllabus.WithArtifactDir(dir))
		}
	}
	if definesFlag(c, "allowed-origin") {
		if origins := c.StringSlice("allowed-origin"); len(origins) > 0 {
			opts = append(opts, syllabus.WithAllowedOrigins(origins...))
		}
	}

	db, err := syllabus.NewDatabase(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// definesFlag reports whether the running command accepts the flag.
func definesFlag(c *cli.Context, name string) bool {
	if c.Command == nil {
		return false
	}
	for _, f := range c.Command.Flags {
		for _, n := range f.Names() {
			if n == name {
				return true
			}
		}
	}
	return false
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
