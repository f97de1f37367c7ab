package config

import (
	"reflect"
	"strings"

	logx "chartjobs/pkg/logx"
)

// SummarizeChange returns the names of the sections that differ between
// oldCfg and newCfg, plus a few log attrs describing the new values. Paths
// and dataset contents are summarized, never logged in full.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 7)
	attrs := make([]logx.Field, 0, 12)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}
	if oldCfg.Engine != newCfg.Engine {
		changed = append(changed, "engine")
		attrs = append(attrs, logx.Int("engine.queue_size", newCfg.Engine.QueueSize))
	}
	if oldCfg.Batch != newCfg.Batch {
		changed = append(changed, "batch")
		attrs = append(attrs,
			logx.Int("batch.pool_size", newCfg.Batch.PoolSize),
			logx.Int("batch.jobs", newCfg.Batch.Jobs),
		)
	}
	if oldCfg.Periodic != newCfg.Periodic {
		changed = append(changed, "periodic")
		attrs = append(attrs, logx.String("periodic.period", strings.TrimSpace(newCfg.Periodic.Period)))
	}
	if oldCfg.Render != newCfg.Render {
		changed = append(changed, "render")
		attrs = append(attrs, logx.String("render.kind", newCfg.Render.Kind))
	}
	if !reflect.DeepEqual(oldCfg.Dataset, newCfg.Dataset) {
		d := newCfg.Dataset
		changed = append(changed, "dataset")
		attrs = append(attrs,
			logx.String("dataset.kind", d.Kind),
			logx.Int("dataset.entries", len(d.Points)+len(d.Bars)+len(d.Bands)+len(d.Boxes)),
		)
	}
	if oldCfg.Storage != newCfg.Storage {
		changed = append(changed, "storage")
		attrs = append(attrs, logx.String("storage.driver", newCfg.Storage.Driver))
	}
	return changed, attrs
}
