package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/surprisebag-backend/pkg/clock"
	"github.com/angelmondragon/surprisebag-backend/pkg/logger"
	"github.com/angelmondragon/surprisebag-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogSweeper interface {
	DeactivateExpiredItems(ctx context.Context, tx *gorm.DB, today time.Time) (int64, error)
	ExpireOffers(ctx context.Context, tx *gorm.DB, today time.Time) (int64, error)
}

type boxSweeper interface {
	ExpireBoxes(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type ExpirySweepJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Catalog catalogSweeper
	Boxes   boxSweeper
	Clock   clock.Clock
	Metrics *metrics.MarketplaceMetrics
}

// NewExpirySweepJob builds the job that retires expired items, offers and
// surprise boxes.
func NewExpirySweepJob(params ExpirySweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog sweeper required")
	}
	if params.Boxes == nil {
		return nil, fmt.Errorf("box sweeper required")
	}
	if params.Clock == nil {
		return nil, fmt.Errorf("clock required")
	}
	return &expirySweepJob{
		logg:    params.Logger,
		db:      params.DB,
		catalog: params.Catalog,
		boxes:   params.Boxes,
		clock:   params.Clock,
		metrics: params.Metrics,
	}, nil
}

type expirySweepJob struct {
	logg    *logger.Logger
	db      txRunner
	catalog catalogSweeper
	boxes   boxSweeper
	clock   clock.Clock
	metrics *metrics.MarketplaceMetrics
}

type sweepStep struct {
	entity string
	run    func(ctx context.Context, tx *gorm.DB) (int64, error)
}

func (j *expirySweepJob) Name() string { return "expiry-sweep" }

// Run executes every step in its own transaction. A failing step does not
// stop the others; all failures are returned together.
func (j *expirySweepJob) Run(ctx context.Context) error {
	now := j.clock.Now()
	today := clock.DateValue(clock.Today(j.clock))
	steps := []sweepStep{
		{entity: "items", run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
			return j.catalog.DeactivateExpiredItems(ctx, tx, today)
		}},
		{entity: "offers", run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
			return j.catalog.ExpireOffers(ctx, tx, today)
		}},
		{entity: "boxes", run: func(ctx context.Context, tx *gorm.DB) (int64, error) {
			return j.boxes.ExpireBoxes(ctx, tx, now)
		}},
	}

	var errs error
	swept := map[string]any{"today": today.Format("2006-01-02")}
	for _, step := range steps {
		var rows int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			rows, err = step.run(ctx, tx)
			return err
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sweep %s: %w", step.entity, err))
			continue
		}
		j.metrics.AddSwept(step.entity, rows)
		swept[step.entity+"_swept"] = rows
	}
	j.logg.Info(j.logg.WithFields(ctx, swept), "expiry sweep complete")
	return errs
}
