package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/quads"
	"github.com/persistorai/triplewalk/internal/store"
)

// LoadOptions configures LoadFiles.
type LoadOptions struct {
	BatchSize int
	// Lang keeps only literals in this language.
	Lang string
	// Strict fails on the first malformed statement instead of skipping it.
	Strict bool
}

// LoadResult summarizes one loaded file.
type LoadResult struct {
	Path    string `json:"path"`
	Skipped int    `json:"skipped"`
	store.LoadStats
}

// LoadFiles bulk-loads N-Triples or N-Quads dumps into l, one file after the
// other. Results for files loaded before a failure are returned with the
// error.
func LoadFiles(ctx context.Context, l store.Loader, paths []string, opts LoadOptions, log *logrus.Logger) ([]LoadResult, error) {
	results := make([]LoadResult, 0, len(paths))

	for _, path := range paths {
		res, err := loadFile(ctx, l, path, opts, log)
		if err != nil {
			return results, err
		}

		results = append(results, res)
	}

	return results, nil
}

func loadFile(ctx context.Context, l store.Loader, path string, opts LoadOptions, log *logrus.Logger) (LoadResult, error) {
	f, err := quads.Open(path, quads.Options{Lang: opts.Lang, Lenient: !opts.Strict, Log: log})
	if err != nil {
		return LoadResult{}, err
	}
	defer f.Close()

	log.WithField("path", path).Info("loading triples")

	stats, err := store.Load(ctx, l, f, store.LoadOptions{BatchSize: opts.BatchSize, Log: log})
	if err != nil {
		return LoadResult{}, fmt.Errorf("loading %s: %w", path, err)
	}

	if f.Skipped() > 0 {
		log.WithFields(logrus.Fields{"path": path, "skipped": f.Skipped()}).Warn("skipped malformed statements")
	}

	return LoadResult{Path: path, Skipped: f.Skipped(), LoadStats: stats}, nil
}
