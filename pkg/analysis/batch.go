package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/ChromaID/pkg/reader/scantable"
)

// LoadRun reads a scan table file.
func LoadRun(path string) (*scantable.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan table: %w", err)
	}
	defer f.Close()
	return scantable.ReadRun(f, path)
}

// RunBatch analyzes independent files on up to workers goroutines. Results
// are returned in input order. The first failure cancels the files not yet
// started and is returned.
func (p *Pipeline) RunBatch(ctx context.Context, paths []string, workers int) ([]*Result, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run, err := LoadRun(path)
			if err != nil {
				return err
			}
			res, err := p.Analyze(gctx, run)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.logger().Error("batch failed", slog.String("error", err.Error()))
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
