package config

import "chartjobs/internal/exact"

// Config is the on-disk configuration. Durations are Go duration strings and
// are parsed by the consumers; empty values fall back to package defaults.
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Engine   EngineConfig   `json:"engine"`
	Batch    BatchConfig    `json:"batch"`
	Periodic PeriodicConfig `json:"periodic"`
	Render   RenderConfig   `json:"render"`
	Dataset  DatasetConfig  `json:"dataset"`
	Storage  StorageConfig  `json:"storage"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// EngineConfig tunes the worker pool behind both schedulers. Worker counts
// come from the batch and periodic sections.
type EngineConfig struct {
	QueueSize      int    `json:"queue_size"`
	DefaultTimeout string `json:"default_timeout"`
	HistorySize    int    `json:"history_size"`
}

type BatchConfig struct {
	PoolSize   int    `json:"pool_size"`
	Jobs       int    `json:"jobs"`
	WaitBudget string `json:"wait_budget"`
}

type PeriodicConfig struct {
	Workers      int    `json:"workers"`
	InitialDelay string `json:"initial_delay"`
	// Period is a Go duration, "every:<dur>", "HH:MM" or a cron expression.
	Period     string `json:"period"`
	Budget     string `json:"budget"`
	Iterations int    `json:"iterations"`
	SleepUpper string `json:"sleep_upper"`
	// RenderJobs runs a render job after each periodic body.
	RenderJobs bool `json:"render_jobs"`
}

// RenderConfig selects the renderer: "png" (go-chart) or "text" (braille).
type RenderConfig struct {
	Kind   string `json:"kind"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	OutDir string `json:"out_dir"`
	Stamp  bool   `json:"stamp"`
	Cols   int    `json:"cols"`
	Rows   int    `json:"rows"`
	Frame  bool   `json:"frame"`
}

// DatasetConfig describes the data each render job charts. With no entries a
// synthetic series is generated per job.
type DatasetConfig struct {
	Kind   string        `json:"kind"`
	Name   string        `json:"name"`
	Points []PointConfig `json:"points,omitempty"`
	Bars   []BarConfig   `json:"bars,omitempty"`
	Bands  []BandConfig  `json:"bands,omitempty"`
	Boxes  []BoxConfig   `json:"boxes,omitempty"`
}

type PointConfig struct {
	ID string       `json:"id"`
	X  exact.Number `json:"x"`
	Y  exact.Number `json:"y"`
}

type BarConfig struct {
	Label string       `json:"label"`
	Value exact.Number `json:"value"`
}

type BandConfig struct {
	Band   string       `json:"band"`
	Male   exact.Number `json:"male"`
	Female exact.Number `json:"female"`
}

type BoxConfig struct {
	Label  string       `json:"label"`
	Min    exact.Number `json:"min"`
	Q1     exact.Number `json:"q1"`
	Median exact.Number `json:"median"`
	Q3     exact.Number `json:"q3"`
	Max    exact.Number `json:"max"`
}

// StorageConfig controls the optional completion history.
type StorageConfig struct {
	// Driver: "" / "none" (disabled), "sqlite", "file", "redis".
	// For redis, Path is a redis:// URL.
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout"`
	// HistoryLimit is the default row count for the history command.
	HistoryLimit int `json:"history_limit"`
}
