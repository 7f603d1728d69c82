package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/examguard/internal/adapter/camera"
	"github.com/pscheid92/examguard/internal/adapter/console"
	"github.com/pscheid92/examguard/internal/adapter/httpserver"
	"github.com/pscheid92/examguard/internal/adapter/metrics"
	"github.com/pscheid92/examguard/internal/adapter/proctorapi"
	"github.com/pscheid92/examguard/internal/adapter/sound"
	"github.com/pscheid92/examguard/internal/alert"
	"github.com/pscheid92/examguard/internal/app"
	"github.com/pscheid92/examguard/internal/domain"
	"github.com/pscheid92/examguard/internal/platform/config"
	"github.com/pscheid92/examguard/internal/platform/logging"
	"github.com/pscheid92/examguard/internal/platform/version"
	"github.com/pscheid92/examguard/internal/uplink"
	"golang.org/x/sync/errgroup"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupAlerts(cfg *config.Config, m *metrics.AlertMetrics) (*alert.Chain, *alert.Alarm) {
	player := sound.NewAplay(cfg.AudioPlayer)

	tone := alert.NewChain(alert.KindTone, m,
		alert.NewResourceOutput(cfg.AlertTonePath, player),
		alert.NewSynthOutput(alert.ToneSegments, player),
	)
	alarm := alert.NewAlarm(alert.NewChain(alert.KindAlarm, m,
		alert.NewResourceOutput(cfg.AlarmSoundPath, player),
		alert.NewSynthOutput(alert.AlarmSegments, player),
	), m)

	return tone, alarm
}

func feedCheck(client *proctorapi.Client, feed string) httpserver.HealthCheck {
	return httpserver.HealthCheck{
		Name: feed + "_feed",
		Check: func(context.Context) error {
			if state := client.BreakerStates()[feed]; state == circuitbreaker.OpenState.String() {
				return fmt.Errorf("%s feed circuit breaker is %s", feed, state)
			}
			return nil
		},
	}
}

// runSignalSubmit submits the exam when the process is asked to stop.
func runSignalSubmit(controller *app.Controller) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, submitting exam")
		if _, err := controller.Submit(context.Background(), domain.TriggerManual); err != nil && !errors.Is(err, domain.ErrSubmissionInProgress) {
			slog.Warn("Submission on shutdown skipped", "error", err)
		}
	}()
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Agent starting", "version", version.Version, "server", cfg.ServerBase, "student_id", cfg.StudentID, "exam_id", cfg.ExamID)

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("Invalid exam timezone", "error", err)
		os.Exit(1)
	}

	registry := metrics.NewRegistry()
	m := metrics.NewProctorMetrics(registry)

	client := proctorapi.NewClient(cfg.ServerBase, cfg.HTTPTimeout, m.Feed)
	tone, alarm := setupAlerts(cfg, m.Alert)

	source := camera.NewGstSource(camera.Config{
		Device: cfg.CameraDevice,
		Width:  cfg.CameraWidth,
		Height: cfg.CameraHeight,
		FPS:    cfg.CameraFPS,
	})
	// The agent is headless, so there is no local preview.
	negotiator := uplink.NewNegotiator(source, nil, client, cfg.STUNServers, m.Session, clock)

	controller := app.NewController(app.Deps{
		Uplink:    negotiator,
		Backend:   client,
		Warnings:  client,
		Captures:  client,
		Tone:      tone,
		Alarm:     alarm,
		Presenter: console.NewLogPresenter(slog.Default()),
		Registry:  app.NewRegistry(),
		Metrics:   m.Session,
		Clock:     clock,
	}, app.Settings{
		Location:           loc,
		Labels:             domain.Labels{Neutral: cfg.NeutralLabel, Sustained: cfg.SustainedLabel},
		WarningInterval:    cfg.WarningPollInterval,
		CaptureInterval:    cfg.CapturePollInterval,
		NegotiationTimeout: cfg.NegotiationTimeout,
	})

	var (
		srv   *httpserver.Server
		group errgroup.Group
	)
	if cfg.StatusAddr != "" {
		srv = httpserver.NewServer(cfg.StatusAddr, controller, registry, metrics.NewHTTPMetrics(registry), []httpserver.HealthCheck{
			feedCheck(client, "warning"),
			feedCheck(client, "capture"),
		})
		group.Go(srv.Start)
	}
	shutdownServer := func() {
		if srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Status server shutdown error", "error", err)
		}
		if err := group.Wait(); err != nil {
			slog.Error("Status server error", "error", err)
		}
	}

	exam := domain.NewExamSession(cfg.StudentID, cfg.ExamID, domain.Schedule{
		Date:            cfg.ExamDate,
		StartTime:       cfg.ExamStartTime,
		DurationMinutes: cfg.ExamDurationMinutes,
	})
	if err := controller.Start(context.Background(), exam); err != nil {
		slog.Error("Exam could not start", "error", err)
		shutdownServer()
		os.Exit(1)
	}

	runSignalSubmit(controller)

	result, err := controller.Wait(context.Background())
	shutdownServer()
	if err != nil {
		slog.Error("Exam session ended without submission", "error", err)
		os.Exit(1)
	}
	if result.Failed {
		os.Exit(2)
	}
}
