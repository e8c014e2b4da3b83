package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/srikandi-id/harvester/internal/observability"
	"github.com/srikandi-id/harvester/internal/types"
)

// SaveResult reports what happened to a batch.
type SaveResult struct {
	Inserted  int
	Conflicts int
	Spilled   int
	SpillPath string

	// Err is the store failure that caused a spill, or the spill failure
	// itself when records could not be written anywhere.
	Err error
}

// Gateway is the single write path into the store. A batch the store
// rejects is spilled to disk instead of dropped.
type Gateway struct {
	store        Store
	spiller      *Spiller
	writeTimeout time.Duration
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewGateway creates a gateway. metrics may be nil.
func NewGateway(store Store, spiller *Spiller, writeTimeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Gateway {
	return &Gateway{
		store:        store,
		spiller:      spiller,
		writeTimeout: writeTimeout,
		metrics:      metrics,
		logger:       logger.With("component", "gateway", "backend", store.Name()),
	}
}

// Save makes one unordered bulk insert. Duplicate links are counted and
// otherwise ignored. Records the store failed to take are spilled.
// Save never returns an error; failures are in the result and the log.
func (g *Gateway) Save(ctx context.Context, records []types.ArticleRecord) SaveResult {
	if len(records) == 0 {
		g.logger.Info("nothing to save")
		return SaveResult{}
	}

	if g.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.writeTimeout)
		defer cancel()
	}

	ins, err := g.store.InsertMany(ctx, records)
	res := SaveResult{Inserted: ins.Inserted, Conflicts: ins.Conflicts}
	g.count(ins)

	if err == nil {
		g.logger.Info("batch saved", "records", len(records), "inserted", res.Inserted, "conflicts", res.Conflicts)
		return res
	}
	res.Err = err

	failed := records
	if ins.Inserted > 0 || ins.Conflicts > 0 {
		failed = make([]types.ArticleRecord, 0, len(ins.Failed))
		for _, i := range ins.Failed {
			if i >= 0 && i < len(records) {
				failed = append(failed, records[i])
			}
		}
	}
	g.logger.Error("bulk insert failed",
		"records", len(records),
		"inserted", res.Inserted,
		"conflicts", res.Conflicts,
		"to_spill", len(failed),
		"error", err,
	)
	if len(failed) == 0 {
		return res
	}

	path, spillErr := g.spiller.Write(failed)
	if spillErr != nil {
		links := make([]string, len(failed))
		for i, r := range failed {
			links[i] = r.Link
		}
		g.logger.Error("spill failed, records lost",
			"records", len(failed),
			"links", links,
			"error", spillErr,
		)
		res.Err = spillErr
		return res
	}

	res.Spilled = len(failed)
	res.SpillPath = path
	if g.metrics != nil {
		g.metrics.ArticlesSpilled.Add(int64(len(failed)))
	}
	g.logger.Warn("records spilled for manual recovery", "path", path, "records", len(failed))
	return res
}

func (g *Gateway) count(ins InsertResult) {
	if g.metrics == nil {
		return
	}
	g.metrics.ArticlesStored.Add(int64(ins.Inserted))
	g.metrics.ArticlesConflicts.Add(int64(ins.Conflicts))
}
