package app

import (
	"strings"
	"time"

	"chartjobs/internal/config"
	"chartjobs/internal/render"
	"chartjobs/internal/storage"
	"chartjobs/internal/task/engine"
	"chartjobs/internal/task/scheduler"
	logx "chartjobs/pkg/logx"
)

const defaultBusyTimeout = time.Second

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapEngineConfig(cfg *config.Config) (engine.Config, error) {
	timeout, err := config.ParseDurationField("engine.default_timeout", cfg.Engine.DefaultTimeout)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		QueueSize:      cfg.Engine.QueueSize,
		DefaultTimeout: timeout,
		HistorySize:    cfg.Engine.HistorySize,
	}, nil
}

func mapBatchBudget(cfg *config.Config) (time.Duration, error) {
	return config.ParseDurationOrDefault("batch.wait_budget", cfg.Batch.WaitBudget, scheduler.DefaultWaitBudget)
}

// mapPeriodicOptions leaves zero values in place; RunPeriodic fills defaults.
func mapPeriodicOptions(cfg *config.Config) (scheduler.PeriodicOptions, error) {
	p := cfg.Periodic
	initial, err := config.ParseDurationField("periodic.initial_delay", p.InitialDelay)
	if err != nil {
		return scheduler.PeriodicOptions{}, err
	}
	budget, err := config.ParseDurationField("periodic.budget", p.Budget)
	if err != nil {
		return scheduler.PeriodicOptions{}, err
	}
	upper, err := config.ParseDurationField("periodic.sleep_upper", p.SleepUpper)
	if err != nil {
		return scheduler.PeriodicOptions{}, err
	}
	pool, err := mapEngineConfig(cfg)
	if err != nil {
		return scheduler.PeriodicOptions{}, err
	}
	return scheduler.PeriodicOptions{
		Workers:      p.Workers,
		InitialDelay: initial,
		Period:       strings.TrimSpace(p.Period),
		Budget:       budget,
		Iterations:   p.Iterations,
		SleepUpper:   upper,
		Pool:         pool,
	}, nil
}

func newRenderer(cfg *config.Config, log logx.Logger) render.Renderer {
	r := cfg.Render
	if strings.EqualFold(strings.TrimSpace(r.Kind), "text") {
		return render.NewBraille(r.Cols, r.Rows, r.Frame)
	}
	return render.NewChart(render.ChartOptions{
		Width:  r.Width,
		Height: r.Height,
		OutDir: strings.TrimSpace(r.OutDir),
		Stamp:  r.Stamp,
	}, log)
}

// mapStorageConfig reports enabled=false for an empty or "none" driver.
func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, defaultBusyTimeout)
	if err != nil {
		return storage.Config{}, false, err
	}
	return storage.Config{Driver: driver, Path: strings.TrimSpace(sc.Path), BusyTimeout: busy}, true, nil
}
