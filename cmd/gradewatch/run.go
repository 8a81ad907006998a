package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"gradewatch/internal/authcode"
	"gradewatch/internal/config"
	"gradewatch/internal/failure"
	"gradewatch/internal/grades"
	"gradewatch/internal/logger"
	"gradewatch/internal/model"
	"gradewatch/internal/notifier"
	"gradewatch/internal/portal"
	"gradewatch/internal/recorder"
	"gradewatch/internal/scheduler"
	"gradewatch/internal/state"

	"github.com/rs/zerolog"
)

type runOptions struct {
	ConfigPath string
	StartDate  time.Time
	Once       bool
}

var errCycleFailed = errors.New("cycle reported an error")

func run(parent context.Context, opts runOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.Get()
	log.Info().Msg("gradewatch starting")

	p := portal.NewHTTPPortal(cfg.Portal.BaseURL, cfg.Proxy)

	var codes authcode.Source
	if cfg.Portal.AuthCode != "" {
		codes = authcode.Static(cfg.Portal.AuthCode)
	} else {
		codes = authcode.NewPrompt(os.Stdin, os.Stderr)
	}

	store, err := state.NewStore(cfg.State.File)
	if err != nil {
		return fmt.Errorf("init watermark store: %w", err)
	}
	start := startDate(opts.StartDate, store)

	rec := openRecorder(cfg.Database.SQLitePath)
	defer rec.Close()

	dispatcher, closeSinks := buildSinks(cfg)
	defer closeSinks()

	interval := pollInterval(cfg, opts.Once)

	creds := &model.Credentials{
		SchoolName: cfg.Portal.School,
		Username:   cfg.Portal.Username,
		Password:   cfg.Portal.Password,
		AuthCode:   cfg.Portal.AuthCode,
	}

	controllerOpts := []scheduler.Option{scheduler.WithWatermarkStore(store)}
	if len(cfg.Poll.CoreSubjects) > 0 {
		controllerOpts = append(controllerOpts, scheduler.WithGradeOptions(grades.WithCoreSubjects(cfg.Poll.CoreSubjects...)))
	}
	ctrl := scheduler.New(p, codes, creds, scheduler.Options{Interval: interval, StartDate: start}, controllerOpts...)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var failed atomic.Bool
	ctrl.OnGrade(func(n model.NotificationGrade) {
		publish(ctx, log, rec, dispatcher, model.NewGradeEvent(n))
	})
	ctrl.OnError(func(fe *failure.Error) {
		failed.Store(true)
		publish(ctx, log, rec, dispatcher, model.NewErrorEvent(fe.Kind.String(), fe.Message))
	})

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}

	if opts.Once {
		if failed.Load() {
			return errCycleFailed
		}
		return nil
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	ctrl.Stop()
	return nil
}

// startDate picks the initial watermark: the command line date, else the
// persisted watermark. Zero lets the controller start from now.
func startDate(cli time.Time, store *state.Store) time.Time {
	if !cli.IsZero() {
		return cli
	}
	if t, ok := store.Watermark(); ok {
		return t
	}
	return time.Time{}
}

func pollInterval(cfg *config.Config, once bool) time.Duration {
	if once {
		return -1
	}
	return cfg.Poll.Interval
}

func publish(ctx context.Context, log zerolog.Logger, rec recorder.Recorder, d *notifier.Dispatcher, evt *model.Event) {
	if err := rec.RecordEvent(evt); err != nil {
		log.Warn().Err(err).Str("event_id", evt.ID).Msg("record event failed")
	}
	d.Dispatch(ctx, evt)
}

func openRecorder(path string) recorder.Recorder {
	log := logger.Get()
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn().Err(err).Msg("create sqlite dir failed, using noop recorder")
		return recorder.NewNoopRecorder()
	}
	r, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop recorder")
		return recorder.NewNoopRecorder()
	}
	return r
}

func buildSinks(cfg *config.Config) (*notifier.Dispatcher, func()) {
	log := logger.Get()
	sinks := []notifier.Sink{notifier.LogSink{Log: log.With().Str("component", "events").Logger()}}
	closers := []func() error{}

	if cfg.Webhook.URL != "" {
		sinks = append(sinks, notifier.NewWebhookNotifier(cfg.Webhook.URL, cfg.Proxy, cfg.Webhook.MaxRetries))
	}
	if cfg.Redis.Addr != "" {
		rp, err := notifier.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Queue)
		if err != nil {
			log.Warn().Err(err).Msg("init redis publisher failed, events will not be queued")
		} else {
			sinks = append(sinks, rp)
			closers = append(closers, rp.Close)
		}
	}

	return notifier.NewDispatcher(sinks...), func() {
		for _, c := range closers {
			_ = c()
		}
	}
}
