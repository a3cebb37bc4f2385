package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-timeofday/internal/astro"
)

// ErrBakeNotStarted is returned by a Baker that could not start a bake.
// It aborts the remaining sweep.
var ErrBakeNotStarted = errors.New("bake did not start")

// Evaluator computes a scenario record for a clock and location. Each call
// must use fresh day/night and smoothing state.
type Evaluator func(clock astro.SimClock, location astro.GeoLocation) Record

// Baker turns one evaluated scenario into a stored lighting configuration
type Baker interface {
	Bake(ctx context.Context, record Record) error
}

// SweepPlan describes a 24 hour bake run
type SweepPlan struct {
	Scene        string
	Date         astro.SimClock // only the calendar date is used
	Location     astro.GeoLocation
	StepHours    float64
	SkipOddHours bool
}

// SweepResult lists what a run baked, in order
type SweepResult struct {
	RunID string
	Baked []string
}

// Sweeper walks the simulated clock through one day and bakes a scenario
// per step
type Sweeper struct {
	evaluate Evaluator
	baker    Baker
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper creates a sweeper
func NewSweeper(evaluate Evaluator, baker Baker, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		evaluate: evaluate,
		baker:    baker,
		logger:   logger,
		now:      time.Now,
	}
}

// Run bakes every step of plan. It stops at the first failed bake or when
// ctx is cancelled, returning what was baked so far.
func (s *Sweeper) Run(ctx context.Context, plan SweepPlan) (SweepResult, error) {
	result := SweepResult{RunID: uuid.NewString()}

	step := plan.StepHours
	if step <= 0 {
		step = 1
	}

	s.logger.Info("Starting scenario sweep",
		"run_id", result.RunID,
		"scene", plan.Scene,
		"date", plan.Date.Date().Format(time.DateOnly),
		"latitude", plan.Location.Latitude,
		"longitude", plan.Location.Longitude,
		"step_hours", step,
		"skip_odd_hours", plan.SkipOddHours)

	for i := 0; ; i++ {
		hours := float64(i) * step
		if hours >= hoursPerDay-1e-9 {
			break
		}
		if plan.SkipOddHours && int(math.Floor(hours))%2 == 1 {
			continue
		}

		if err := ctx.Err(); err != nil {
			s.logger.Warn("Scenario sweep cancelled",
				"run_id", result.RunID,
				"baked", len(result.Baked))
			return result, fmt.Errorf("sweep cancelled: %w", err)
		}

		clock := plan.Date.WithTimeOfDay(hours)
		record := s.evaluate(clock, plan.Location)
		record.ID = uuid.NewString()
		record.RunID = result.RunID
		record.Scene = plan.Scene
		record.Name = Name(plan.Scene, clock.Local())
		record.TimeOfDayHours = hours
		record.Clock = clock
		record.Location = plan.Location
		record.BakedAt = s.now().UTC()

		if err := s.baker.Bake(ctx, record); err != nil {
			s.logger.Error("Bake failed, aborting sweep",
				"run_id", result.RunID,
				"scenario", record.Name,
				"error", err)
			return result, fmt.Errorf("failed to bake %s: %w", record.Name, err)
		}

		result.Baked = append(result.Baked, record.Name)
		s.logger.Debug("Baked scenario",
			"run_id", result.RunID,
			"scenario", record.Name,
			"sun_elevation", record.Sun.ElevationDeg,
			"is_day", record.IsDay)
	}

	s.logger.Info("Scenario sweep complete",
		"run_id", result.RunID,
		"baked", len(result.Baked))

	return result, nil
}

// CatalogBaker bakes by saving the record into a catalog
type CatalogBaker struct {
	catalog Catalog
}

// NewCatalogBaker creates a baker writing to catalog
func NewCatalogBaker(catalog Catalog) *CatalogBaker {
	return &CatalogBaker{catalog: catalog}
}

// Bake implements Baker
func (b *CatalogBaker) Bake(ctx context.Context, record Record) error {
	if err := b.catalog.Save(ctx, record); err != nil {
		return fmt.Errorf("%w: %w", ErrBakeNotStarted, err)
	}
	return nil
}
