package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/triplewalk/internal/models"
)

// DefaultLoadBatchSize is the number of triples written per LoadTriples call.
const DefaultLoadBatchSize = 1000

// TripleSource yields triples until it returns io.EOF.
type TripleSource interface {
	Next() (models.Triple, error)
}

// LoadOptions configures a bulk load.
type LoadOptions struct {
	BatchSize int
	// ReportEvery logs progress after this many triples have been read.
	ReportEvery int
	Log         *logrus.Logger
}

// LoadStats summarizes a finished load.
type LoadStats struct {
	Read     int           `json:"read"`
	Inserted int           `json:"inserted"`
	Duration time.Duration `json:"duration"`
}

// Load reads src to the end and writes it into l in batches. Reading and
// writing overlap: one goroutine parses the next batch while the previous
// one is being written.
func Load(ctx context.Context, l Loader, src TripleSource, opts LoadOptions) (LoadStats, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultLoadBatchSize
	}

	if opts.ReportEvery <= 0 {
		opts.ReportEvery = 100 * opts.BatchSize
	}

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	start := time.Now()
	batches := make(chan []models.Triple, 1)

	var stats LoadStats

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batches)

		batch := make([]models.Triple, 0, opts.BatchSize)

		for {
			t, err := src.Next()
			if errors.Is(err, io.EOF) {
				break
			}

			if err != nil {
				return fmt.Errorf("reading triple %d: %w", stats.Read+1, err)
			}

			batch = append(batch, t)
			stats.Read++

			if stats.Read%opts.ReportEvery == 0 {
				elapsed := time.Since(start)
				log.WithFields(logrus.Fields{
					"read":    stats.Read,
					"elapsed": elapsed.Round(time.Millisecond).String(),
					"rate":    int(float64(stats.Read) / elapsed.Seconds()),
				}).Info("load progress")
			}

			if len(batch) < opts.BatchSize {
				continue
			}

			select {
			case batches <- batch:
			case <-gctx.Done():
				return gctx.Err()
			}

			batch = make([]models.Triple, 0, opts.BatchSize)
		}

		if len(batch) > 0 {
			select {
			case batches <- batch:
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		return nil
	})

	g.Go(func() error {
		for batch := range batches {
			n, err := l.LoadTriples(gctx, batch)
			if err != nil {
				return fmt.Errorf("writing batch: %w", err)
			}

			stats.Inserted += n
		}

		return nil
	})

	err := g.Wait()
	stats.Duration = time.Since(start)

	if err != nil {
		return stats, err
	}

	log.WithFields(logrus.Fields{
		"read":     stats.Read,
		"inserted": stats.Inserted,
		"duration": stats.Duration.Round(time.Millisecond).String(),
	}).Info("load finished")

	return stats, nil
}
