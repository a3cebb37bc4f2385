package environment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-timeofday/internal/astro"
	"github.com/saaga0h/jeeves-timeofday/internal/daynight"
	"github.com/saaga0h/jeeves-timeofday/internal/lighting"
	"github.com/saaga0h/jeeves-timeofday/internal/scenario"
	"github.com/saaga0h/jeeves-timeofday/pkg/config"
	"github.com/saaga0h/jeeves-timeofday/pkg/postgres"
	"github.com/saaga0h/jeeves-timeofday/pkg/redis"
)

// OptionsFromConfig resolves the location preset, start clock and tuning
// from cfg. now supplies the date when cfg has no start date.
func OptionsFromConfig(cfg *config.Config, now time.Time) (Options, error) {
	presets := append([]astro.LocationPreset(nil), astro.DefaultPresets...)
	if cfg.PresetFile != "" {
		extra, err := astro.LoadPresets(cfg.PresetFile)
		if err != nil {
			return Options{}, err
		}
		presets = append(presets, extra...)
	}

	location := astro.GeoLocation{
		Latitude:       cfg.Latitude,
		Longitude:      cfg.Longitude,
		UTCOffsetHours: cfg.UTCOffset,
	}
	if cfg.LocationPreset != "" && !astro.IsCustomPreset(cfg.LocationPreset) {
		resolved, err := astro.ApplyPresetFrom(presets, cfg.LocationPreset)
		if err != nil {
			return Options{}, err
		}
		location = resolved
	}
	if err := location.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid location: %w", err)
	}

	date, err := cfg.StartClockDate(now)
	if err != nil {
		return Options{}, fmt.Errorf("invalid start date: %w", err)
	}
	clock := astro.ClockFromTime(date, 0).WithTimeOfDay(cfg.StartTimeHours)

	mode, err := daynight.ParseSmoothingMode(cfg.SmoothingMode)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Scene:     cfg.SceneName,
		Location:  location,
		Clock:     clock,
		TimeScale: cfg.TimeScale,
		DayNight: daynight.Config{
			TwilightLowerBound: cfg.TwilightLowerBound,
			TwilightUpperBound: cfg.TwilightUpperBound,
		},
		SpaceRamp: daynight.SpaceRamp{
			Start:     cfg.SpaceRampStart,
			Threshold: cfg.SpaceThreshold,
		},
		ObserverAltitude:  cfg.ObserverAltitude,
		Smoothing:         daynight.Smoothing{Mode: mode, Rate: cfg.SmoothingRate},
		Lighting:          lighting.DefaultSettings(),
		ScenarioLeadHours: cfg.ScenarioLeadHours,
		Presets:           presets,
	}, nil
}

// CatalogFromConfig opens the configured scenario catalog. The postgres
// client must already be connected when the postgres source is selected.
func CatalogFromConfig(ctx context.Context, cfg *config.Config, redisClient redis.Client, pgClient postgres.Client) (scenario.Catalog, error) {
	switch strings.ToLower(cfg.CatalogSource) {
	case "file":
		return scenario.NewFileCatalog(cfg.CatalogPath), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis catalog requires a redis client")
		}
		return scenario.NewRedisCatalog(redisClient, cfg.SceneName), nil
	case "postgres":
		if pgClient == nil {
			return nil, fmt.Errorf("postgres catalog requires a postgres client")
		}
		catalog := scenario.NewPostgresCatalog(pgClient, cfg.SceneName)
		if err := catalog.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return catalog, nil
	default:
		return nil, fmt.Errorf("invalid catalog source: %s", cfg.CatalogSource)
	}
}
