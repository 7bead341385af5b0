package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/syllabus"
	"github.com/poiesic/syllabus/core"
	"github.com/poiesic/syllabus/rag"
	"github.com/poiesic/syllabus/reembed"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const statusPollInterval = 2 * time.Second

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}

	// jobs outlive the signal context so running ones can finish during shutdown
	jobCtx, stopJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer stopJobs()
	if err := db.Start(jobCtx); err != nil {
		db.Close()
		return fmt.Errorf("failed to start workers: %w", err)
	}

	router, err := db.NewRouter()
	if err != nil {
		db.Close()
		return err
	}
	srv := &http.Server{
		Addr:              c.String("addr"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Fprintf(c.App.ErrWriter, "Listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(c.App.ErrWriter, "Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "HTTP shutdown: %v\n", err)
		}

		// interrupted jobs are failed by the next start
		timer := time.AfterFunc(c.Duration("shutdown-timeout"), stopJobs)
		defer timer.Stop()
		return db.Close()
	})
	return g.Wait()
}

func generateCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one request file")
	}
	req, err := readRequest(c.Args().First())
	if err != nil {
		return err
	}
	if req.SessionID == "" {
		req.SessionID = "cli-" + uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	sub, err := db.Gateway().Subscribe(req.SessionID)
	if err != nil {
		return err
	}
	defer sub.Close()

	jobID, err := db.Queue().Submit(ctx, req)
	if err != nil {
		return fmt.Errorf("submit failed: %w", err)
	}
	fmt.Fprintf(c.App.ErrWriter, "Job %s submitted for course %s\n", jobID, req.CourseID)

	job, err := followJob(ctx, c.App.ErrWriter, db, sub.Events(), jobID)
	if err != nil {
		return err
	}

	switch job.Status {
	case core.JobStatusCompleted:
		return writeJSON(c.App.Writer, job.FinalPayload)
	case core.JobStatusCancelled:
		return fmt.Errorf("job %s was cancelled", jobID)
	default:
		return fmt.Errorf("job %s failed: %s", jobID, lastError(job))
	}
}

// followJob prints progress until the job is terminal. An interrupt cancels
// the job and keeps waiting for it to stop.
func followJob(ctx context.Context, w io.Writer, db *syllabus.Database, events <-chan core.Event, jobID string) (*core.GenerationJob, error) {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	interrupted := ctx.Done()
	last := -1
	for {
		select {
		case <-interrupted:
			interrupted = nil
			fmt.Fprintln(w, "\nCancelling...")
			if _, err := db.Queue().Cancel(context.Background(), jobID); err != nil {
				return nil, err
			}
		case ev := <-events:
			if ev.JobID != jobID {
				continue
			}
			if ev.ProgressPercentage != last || ev.Type != core.EventProgress {
				last = ev.ProgressPercentage
				fmt.Fprintf(w, "[%3d%%] %s\n", ev.ProgressPercentage, ev.CurrentStep)
			}
		case <-ticker.C:
		}

		// events can be dropped, so the stored state decides
		job, err := db.Tracker().Snapshot(context.Background(), jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}
	}
}

func statusCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one job id")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	job, err := db.Tracker().Snapshot(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, job)
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a query is required")
	}
	query := c.Args().First()
	for _, arg := range c.Args().Tail() {
		query += " " + arg
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("context") {
		text, err := db.Store().AssembleContext(c.Context, c.String("course"), query, c.Int("limit"))
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, text)
		return nil
	}

	results, err := db.Store().Search(c.Context, rag.SearchQuery{
		CourseID:    c.String("course"),
		Query:       query,
		Limit:       c.Int("limit"),
		ContentType: core.ContentType(c.String("content-type")),
	})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(c.App.ErrWriter, "No results found")
		return nil
	}
	for i, hit := range rag.ToHits(results) {
		fmt.Fprintf(c.App.Writer, "%d. [%.3f] %s (%s)\n", i+1, hit.SimilarityScore, hit.Title, hit.ContentType)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		CourseID:       c.String("course"),
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := db.NewReembedder(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", c.String("db"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := r.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func readRequest(path string) (*core.GenerationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	var req core.GenerationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request %s: %w", path, err)
	}
	if err := core.ValidateGenerationRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func lastError(job *core.GenerationJob) string {
	if len(job.ErrorLog) == 0 {
		return "unknown error"
	}
	return job.ErrorLog[len(job.ErrorLog)-1].Error
}
