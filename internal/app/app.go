// Package app wires configuration, logging, storage and the job schedulers
// into the operations the chartjobs commands expose.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"chartjobs/internal/config"
	"chartjobs/internal/eventbus"
	"chartjobs/internal/runtime/supervisor"
	"chartjobs/internal/storage"
	"chartjobs/internal/task/job"
	"chartjobs/internal/task/scheduler"
	logx "chartjobs/pkg/logx"
)

const (
	defaultHistoryLimit = 20
	stopTimeout         = 10 * time.Second
)

type App struct {
	cfgm *config.Manager

	logs  *logx.Service
	log   logx.Logger
	reg   *eventbus.Registry
	store storage.Store

	// notify reports service state to systemd; replaced in tests.
	notify func(state string) (bool, error)
}

// New loads the config at cfgPath and opens logging and storage.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	cfgm.SetLogger(log)

	a := &App{
		cfgm:   cfgm,
		logs:   logSvc,
		log:    log.With(logx.String("comp", "app")),
		reg:    eventbus.NewRegistry(log),
		notify: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}

	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			_ = logSvc.Close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.store = st
		a.reg.Register(storage.NewRecorder(st, log))
		a.log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	a.reg.Register(eventbus.ListenerFunc(func(ev eventbus.CompletionEvent) error {
		if ev.OK() {
			a.log.Debug("render completed",
				logx.String("job", ev.Source.Name),
				logx.Int("pass", ev.Pass),
				logx.String("format", ev.Format),
				logx.Int("bytes", ev.Bytes),
				logx.Duration("took", ev.Duration()),
			)
			return nil
		}
		a.log.Warn("render failed", logx.String("job", ev.Source.Name), logx.Int("pass", ev.Pass), logx.Err(ev.Err))
		return nil
	}))
	return a, nil
}

// Registry is where completion listeners attach.
func (a *App) Registry() *eventbus.Registry { return a.reg }

// Close releases storage and log sinks.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Close())
	}
	return errors.Join(errs...)
}

// factory builds a render job factory from the current config.
func (a *App) factory(cfg *config.Config) (job.Factory, error) {
	src, err := newSource(cfg.Dataset, a.log)
	if err != nil {
		return nil, err
	}
	return job.NewFactory(job.Deps{
		Registry: a.reg,
		Renderer: newRenderer(cfg, a.log),
		Source:   src,
		Log:      a.log,
	}), nil
}

// RunBatch runs one batch. poolSize and jobs override the config when > 0.
func (a *App) RunBatch(ctx context.Context, poolSize, jobs int) (scheduler.BatchReport, error) {
	cfg := a.cfgm.Get()
	f, err := a.factory(cfg)
	if err != nil {
		return scheduler.BatchReport{}, err
	}
	budget, err := mapBatchBudget(cfg)
	if err != nil {
		return scheduler.BatchReport{}, err
	}
	pool, err := mapEngineConfig(cfg)
	if err != nil {
		return scheduler.BatchReport{}, err
	}
	if poolSize <= 0 {
		poolSize = cfg.Batch.PoolSize
	}
	if jobs <= 0 {
		jobs = cfg.Batch.Jobs
	}

	b := scheduler.NewBatch(f, budget, a.log)
	b.SetPoolConfig(pool)
	return b.RunBatch(ctx, poolSize, jobs), nil
}

// RunPeriodic runs the periodic workload from the config. Render jobs are
// started after every body when periodic.render_jobs is set.
func (a *App) RunPeriodic(ctx context.Context) (scheduler.PeriodicReport, error) {
	cfg := a.cfgm.Get()
	opts, err := mapPeriodicOptions(cfg)
	if err != nil {
		return scheduler.PeriodicReport{}, err
	}
	if cfg.Periodic.RenderJobs {
		if opts.Factory, err = a.factory(cfg); err != nil {
			return scheduler.PeriodicReport{}, err
		}
	}
	return scheduler.NewPeriodic(a.log).RunPeriodic(ctx, opts)
}

// History returns up to limit stored completions, newest first. limit <= 0
// uses storage.history_limit.
func (a *App) History(ctx context.Context, limit int) ([]storage.CompletionRecord, error) {
	if a.store == nil {
		return nil, storage.ErrDisabled
	}
	if limit <= 0 {
		limit = a.cfgm.Get().Storage.HistoryLimit
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return a.store.Recent(ctx, limit)
}

// Watch runs a batch now and again after every accepted config change,
// until ctx is done. Readiness and shutdown are reported to systemd when
// running under a notify unit. onBatch, if set, sees every report.
func (a *App) Watch(ctx context.Context, onBatch func(scheduler.BatchReport)) error {
	sup := supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	sub := a.cfgm.Subscribe(4)

	sup.Go("config.watch", a.cfgm.Watch)
	sup.Go("batch.loop", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		applied := a.cfgm.Get()
		run := func() error {
			rep, err := a.RunBatch(c, 0, 0)
			if err != nil {
				return err
			}
			if onBatch != nil {
				onBatch(rep)
			}
			return nil
		}
		if err := run(); err != nil {
			return err
		}
		for {
			select {
			case <-c.Done():
				return nil
			case cfg, ok := <-sub:
				if !ok {
					return nil
				}
				// Coalesce bursts.
			drain:
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							cfg = newer
						}
					default:
						break drain
					}
				}
				a.apply(applied, cfg)
				applied = cfg
				if err := run(); err != nil {
					a.log.Warn("batch after reload failed", logx.Err(err))
				}
			}
		}
	})

	if sent, err := a.notify(daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify ready sent")
	}
	a.log.Info("watching config", logx.String("path", a.cfgm.Path()))

	<-sup.Context().Done()
	_, _ = a.notify(daemon.SdNotifyStopping)

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sup.Stop(stopCtx); err != nil {
		a.log.Warn("watch shutdown incomplete", logx.Err(err))
	}
	return sup.Err()
}

// apply hot-applies the parts of cfg that can change while running.
func (a *App) apply(prev, cfg *config.Config) {
	changed, _ := config.SummarizeChange(prev, cfg)
	for _, s := range changed {
		switch s {
		case "logging":
			a.logs.Apply(mapLogConfig(cfg))
		case "storage":
			a.log.Warn("storage config changed; restart required for changes to take effect")
		}
	}
}
