package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	orchestration "github.com/koscakluka/ema-welfare/core"
	"github.com/koscakluka/ema-welfare/core/config"
	"github.com/koscakluka/ema-welfare/core/executor"
	"github.com/koscakluka/ema-welfare/core/planner"
	"github.com/koscakluka/ema-welfare/core/server"
	"github.com/koscakluka/ema-welfare/core/session"
	"github.com/koscakluka/ema-welfare/core/texttospeech"
	"github.com/koscakluka/ema-welfare/core/tools/eligibility"
	"github.com/koscakluka/ema-welfare/core/tools/knowledge"
	"github.com/koscakluka/ema-welfare/core/voice"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		noVoice bool
	)
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the assistant and the observer server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if addr != "" {
				app.Server.Addr = addr
			}
			return serve(ctx, app, noVoice)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides EMA_ADDR)")
	cmd.Flags().BoolVar(&noVoice, "no-voice", false, "serve typed messages only, without audio devices")
	return cmd
}

func serve(ctx context.Context, app *config.App, noVoice bool) error {
	catalog, err := knowledge.LoadCatalog(ctx, app.Server.CatalogDB)
	if err != nil {
		return fmt.Errorf("failed to load scheme catalog: %w", err)
	}
	engine, err := eligibility.NewEngine(catalog, eligibility.DefaultRules())
	if err != nil {
		return err
	}

	backend, err := newPlannerBackend(ctx, app)
	if err != nil {
		return err
	}
	agentPlanner, err := planner.New(backend, plannerOptions(app)...)
	if err != nil {
		return err
	}

	sess := session.New()
	opts := []orchestration.OrchestratorOption{
		orchestration.WithPlanner(agentPlanner),
		orchestration.WithToolExecutor(executor.New(engine, catalog)),
		orchestration.WithConfidenceThreshold(app.Voice.ConfidenceThreshold),
	}

	if noVoice {
		opts = append(opts, orchestration.WithSpeaker(voice.Muted{}))
	} else {
		device, err := newAudioDevice(app)
		if err != nil {
			return err
		}
		defer func() {
			if err := device.Close(); err != nil {
				logger.Warn("failed to close audio device", "error", err)
			}
		}()

		transcriber, err := newTranscriber(app)
		if err != nil {
			return err
		}
		synthesizer, err := newSynthesizer(app)
		if err != nil {
			return err
		}

		opts = append(opts,
			orchestration.WithVoiceInput(voice.NewInput(device, transcriber,
				voice.WithCaptureWindow(app.Voice.CaptureWindow),
				voice.WithSilenceThreshold(app.Voice.SilenceThreshold),
				voice.WithLanguage(app.Voice.Language),
				voice.WithSampleRate(app.Voice.SampleRate),
			)),
			orchestration.WithSpeaker(voice.NewSpeaker(synthesizer, device,
				texttospeech.WithEncodingInfo(device.PlaybackEncodingInfo()),
			)),
		)
	}

	orchestrator := orchestration.NewOrchestrator(sess, opts...)
	srv := server.New(server.Config{Addr: app.Server.Addr, ShutdownTimeout: app.Server.ShutdownTimeout}, sess)

	logger.Info("starting ema-welfare",
		"session", sess.ID(),
		"addr", app.Server.Addr,
		"planner", app.Server.Planner,
		"voice", !noVoice)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := orchestrator.Run(ctx); err != nil {
			return fmt.Errorf("orchestrator stopped: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	return group.Wait()
}

func plannerOptions(app *config.App) []planner.Option {
	return []planner.Option{
		planner.WithTimeout(app.Groq.Timeout),
		planner.WithSchemaOutput(app.Server.PlannerSchema),
	}
}
