// Package importer bulk-loads sales from CSV files into Postgres.
// It backs the binary's --mode import, feeding the same table the API
// serves, through the same pricing resolver.
package importer

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mfreitas/salesdash/internal/logger"
	"github.com/mfreitas/salesdash/internal/storage"
)

const (
	defaultBatchSize = 5000
	maxParallelFiles = 8
)

// repoCtor is an indirection for creating the repository; tests can override this.
var repoCtor = func(db *sql.DB) storage.SalesRepository {
	return storage.NewSalesRepository(db)
}

// ProcessDirectory imports every .csv file found in dir.
//
// Behavior:
//   - Files already recorded in import_log are skipped unless force is set.
//     Re-importing with force appends rows again; imported rows carry no
//     file tag, so a forced run does not remove the earlier ones.
//   - Files are processed concurrently, bounded by parallel (0 means
//     min(NumCPU, 4); values are clamped to 1..8).
//   - Each file's row count is upserted into import_log on success.
//   - The first error cancels the remaining files and is returned.
func ProcessDirectory(ctx context.Context, dir string, db *sql.DB, parallel int, force bool) error {
	// use indirection to allow tests to swap repository constructor
	repo := repoCtor(db)

	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return fmt.Errorf("list csv files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no .csv files found in %s", dir)
	}
	sort.Strings(files)

	logger.L().Info().Int("files", len(files)).Str("dir", dir).Msg("import start")

	maxParallel := 4
	if parallel > 0 {
		if parallel > maxParallelFiles {
			parallel = maxParallelFiles
		}
		maxParallel = parallel
	} else if c := runtime.NumCPU(); c < maxParallel {
		maxParallel = c
	}

	logger.L().Info().Int("max_parallel", maxParallel).Msg("import configured")

	// errgroup will cancel siblings on first error.
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxParallel)

	for _, file := range files {
		f := file
		sem <- struct{}{}

		g.Go(func() error {
			defer func() { <-sem }()

			name := filepath.Base(f)

			if !force {
				done, err := repo.HasImportForFile(name)
				if err != nil {
					return fmt.Errorf("check import log for %s: %w", name, err)
				}
				if done {
					logger.L().Info().Str("file", name).Msg("already imported, skipping")
					return nil
				}
			}

			rows, err := parseAndPersistFile(gctx, f, repo, defaultBatchSize)
			if err != nil {
				return fmt.Errorf("import %s: %w", name, err)
			}

			if err := repo.UpsertImportLog(name, rows); err != nil {
				return fmt.Errorf("record import of %s: %w", name, err)
			}

			logger.L().Info().Str("file", name).Int("rows", rows).Msg("file imported")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.L().Info().Msg("import finished")
	return nil
}
