package config

import (
	"errors"
	"fmt"
	"strings"

	"chartjobs/internal/series"
	"chartjobs/internal/task/scheduler"
)

// Validate reports every problem in cfg at once. Empty fields are valid and
// mean "use the default".
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	nonNeg := func(path string, v int) {
		if v < 0 {
			add(fmt.Errorf("%s: must be >= 0", path))
		}
	}
	duration := func(path, raw string) {
		_, err := ParseDurationField(path, raw)
		add(err)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		add(fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level))
	}
	if cfg.Logging.File.Enabled && strings.TrimSpace(cfg.Logging.File.Path) == "" {
		add(errors.New("logging.file.path: required when file logging is enabled"))
	}

	nonNeg("engine.queue_size", cfg.Engine.QueueSize)
	nonNeg("engine.history_size", cfg.Engine.HistorySize)
	duration("engine.default_timeout", cfg.Engine.DefaultTimeout)

	nonNeg("batch.pool_size", cfg.Batch.PoolSize)
	nonNeg("batch.jobs", cfg.Batch.Jobs)
	duration("batch.wait_budget", cfg.Batch.WaitBudget)

	p := cfg.Periodic
	nonNeg("periodic.workers", p.Workers)
	nonNeg("periodic.iterations", p.Iterations)
	duration("periodic.initial_delay", p.InitialDelay)
	duration("periodic.budget", p.Budget)
	duration("periodic.sleep_upper", p.SleepUpper)
	if strings.TrimSpace(p.Period) != "" {
		spec, err := scheduler.ParseSchedule(p.Period)
		if err == nil {
			_, err = spec.Schedule()
		}
		if err != nil {
			add(fmt.Errorf("periodic.period: %w", err))
		}
	}

	r := cfg.Render
	switch strings.ToLower(strings.TrimSpace(r.Kind)) {
	case "", "png", "text":
	default:
		add(fmt.Errorf("render.kind: unknown renderer %q (png|text)", r.Kind))
	}
	nonNeg("render.width", r.Width)
	nonNeg("render.height", r.Height)
	nonNeg("render.cols", r.Cols)
	nonNeg("render.rows", r.Rows)

	add(validateDataset(cfg.Dataset))

	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case "", "none":
	case "file", "jsonl", "sqlite", "sqlite3", "redis":
		if strings.TrimSpace(cfg.Storage.Path) == "" {
			add(fmt.Errorf("storage.path: required for driver %q", cfg.Storage.Driver))
		}
	default:
		add(fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver))
	}
	duration("storage.busy_timeout", cfg.Storage.BusyTimeout)
	nonNeg("storage.history_limit", cfg.Storage.HistoryLimit)

	return errors.Join(errs...)
}

// validateDataset checks that only the entry list matching the kind is set.
func validateDataset(d DatasetConfig) error {
	kind, err := series.ParseKind(d.Kind)
	if err != nil {
		return fmt.Errorf("dataset.kind: %w", err)
	}
	lists := map[string]int{
		"points": len(d.Points),
		"bars":   len(d.Bars),
		"bands":  len(d.Bands),
		"boxes":  len(d.Boxes),
	}
	want := "points"
	switch kind {
	case series.KindBar:
		want = "bars"
	case series.KindAgeGender:
		want = "bands"
	case series.KindBoxPlot:
		want = "boxes"
	}
	for name, n := range lists {
		if name != want && n > 0 {
			return fmt.Errorf("dataset.%s: not valid for kind %s (use %s)", name, kind, want)
		}
	}
	for i, b := range d.Boxes {
		if b.Min.Cmp(b.Q1) > 0 || b.Q1.Cmp(b.Median) > 0 || b.Median.Cmp(b.Q3) > 0 || b.Q3.Cmp(b.Max) > 0 {
			return fmt.Errorf("dataset.boxes[%d]: values must satisfy min <= q1 <= median <= q3 <= max", i)
		}
	}
	return nil
}
