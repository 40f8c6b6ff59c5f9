package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yuqie6/SkillBridge/internal/schema"
	"golang.org/x/sync/errgroup"
)

const (
	enrichBatchSize   = 100
	enrichConcurrency = 4
)

// resolveProfiles loads the profiles of ids in concurrent batches. A profile
// that no longer exists is skipped with a warning; any other failure aborts.
func resolveProfiles(ctx context.Context, reader ProfileReader, ids []string) (map[string]*schema.Profile, error) {
	out := make(map[string]*schema.Profile, len(ids))
	unique := uniqueStrings(ids)
	if len(unique) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for start := 0; start < len(unique); start += enrichBatchSize {
		batch := unique[start:min(start+enrichBatchSize, len(unique))]
		g.Go(func() error {
			rows, err := reader.GetByUserIDs(gctx, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for i := range rows {
				out[rows[i].UserID] = &rows[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, id := range unique {
		if _, ok := out[id]; !ok {
			slog.Warn("skip unresolved profile", "user", id)
		}
	}
	return out, nil
}
