package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/persistorai/triplewalk/internal/service"
	"github.com/persistorai/triplewalk/internal/store"
)

func newLoadCmd() *cobra.Command {
	var (
		opts      store.Options
		lang      string
		batchSize int
		strict    bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "load <file>...",
		Short: "Bulk-load N-Triples or N-Quads dumps into a local store",
		Long: `Bulk-load N-Triples or N-Quads dumps into a local store. The server does
not need to run; point it at the same store afterwards. Files ending in .gz
or .zst are decompressed on the fly.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Backend == store.BackendMemory {
				return fmt.Errorf("the memory backend does not outlive this command; choose badger, sqlite or postgres")
			}
			if opts.DatabaseURL == "" {
				opts.DatabaseURL = os.Getenv("DATABASE_URL")
			}

			log := logrus.New()
			log.SetOutput(os.Stderr)
			log.SetLevel(logrus.WarnLevel)
			if verbose {
				log.SetLevel(logrus.InfoLevel)
			}

			ctx := cmd.Context()
			st, err := store.Open(ctx, opts, log)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck // closing on exit

			results, loadErr := service.LoadFiles(ctx, st, args, service.LoadOptions{
				BatchSize: batchSize,
				Lang:      lang,
				Strict:    strict,
			}, log)

			rows := make([][]string, len(results))
			paths := make([]string, len(results))
			for i, r := range results {
				rows[i] = []string{r.Path, strconv.Itoa(r.Read), strconv.Itoa(r.Inserted), strconv.Itoa(r.Skipped), r.Duration.String()}
				paths[i] = r.Path
			}
			if err := output(results, []string{"FILE", "READ", "INSERTED", "SKIPPED", "DURATION"}, rows, paths); err != nil {
				return err
			}
			return loadErr
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", store.BackendBadger, "Store backend: badger|sqlite|postgres")
	cmd.Flags().StringVar(&opts.BadgerDir, "badger-dir", "./data/badger", "Badger data directory")
	cmd.Flags().StringVar(&opts.SQLitePath, "sqlite-path", "./data/triplewalk.db", "SQLite database file")
	cmd.Flags().StringVar(&opts.DatabaseURL, "database-url", "", "PostgreSQL URL (env: DATABASE_URL)")
	cmd.Flags().IntVar(&opts.MaxConns, "max-conns", 4, "PostgreSQL pool size")
	cmd.Flags().StringVar(&lang, "lang", "", "Keep only literals in this language tag")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Triples per write batch (default when 0)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on the first malformed statement")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log load progress")
	return cmd
}
