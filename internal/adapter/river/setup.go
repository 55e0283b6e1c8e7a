package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/neomorfeo/proviq/internal/domain"
)

const (
	defaultMaxWorkers  = 5
	defaultMaxAttempts = 10
)

// Options tune the consumer. Zero values fall back to production defaults.
type Options struct {
	// MaxWorkers bounds how many lifecycle jobs run concurrently.
	MaxWorkers int
	// MaxAttempts bounds redeliveries of a failing job before River
	// discards it (still inspectable in the river_job table).
	MaxAttempts int
	Logger      *slog.Logger
}

// Setup creates a River client with the four lifecycle workers registered and
// runs River's internal migrations. The caller must call client.Start() to
// begin processing jobs and client.Stop() for graceful shutdown.
func Setup(ctx context.Context, db *sql.DB, dispatcher domain.EventDispatcher, opts Options) (*Client, error) {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = defaultMaxWorkers
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}

	driver := riversqlite.New(db)

	// Run River's own migrations (creates river_job, river_leader, etc.).
	// These are separate from the app's goose migrations.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &ActivatedWorker{dispatcher: dispatcher})
	river.AddWorker(workers, &SuspendedWorker{dispatcher: dispatcher})
	river.AddWorker(workers, &UnsuspendedWorker{dispatcher: dispatcher})
	river.AddWorker(workers, &TerminatedWorker{dispatcher: dispatcher})

	client, err := river.NewClient(driver, &river.Config{
		Logger:      opts.Logger,
		MaxAttempts: opts.MaxAttempts,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: opts.MaxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
