package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/handsheet/internal/app"
	"github.com/ayusman/handsheet/internal/capture"
	"github.com/ayusman/handsheet/internal/config"
	"github.com/ayusman/handsheet/internal/executor"
	"github.com/ayusman/handsheet/internal/replay"
	"github.com/ayusman/handsheet/internal/store"
	"github.com/ayusman/handsheet/internal/telemetry"
	"github.com/ayusman/handsheet/internal/tray"
	"github.com/ayusman/handsheet/internal/vision"
	"github.com/ayusman/handsheet/internal/voice"
)

func main() {
	root := &cobra.Command{
		Use:          "handsheet",
		Short:        "Hand gesture and voice control for a spreadsheet",
		SilenceUsage: true,
	}
	var dotenv string
	root.PersistentFlags().StringVar(&dotenv, "env-file", ".env", "optional .env file")

	root.AddCommand(newServeCmd(&dotenv), newReplayCmd(&dotenv))
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newServeCmd(dotenv *string) *cobra.Command {
	var record string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, landmark websocket and optional camera loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*dotenv)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, record)
		},
	}
	cmd.Flags().StringVar(&record, "record", "", "append every landmark frame to this file")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, record string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("[main] telemetry shutdown: %v", err)
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.StaticDir == "" {
		cfg.StaticDir = findWebDir(cfg.DataDir)
	}

	acfg := app.Config{
		Settings:  cfg,
		Store:     st,
		Clipboard: executor.SystemClipboard,
	}

	if cfg.OpenAIKey != "" {
		llm, err := voice.NewOpenAI(voice.OpenAIConfig{APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel})
		if err != nil {
			return err
		}
		acfg.Interpreter = llm
	} else {
		log.Printf("[main] no OpenAI key, speech uses local phrases only")
	}

	if record != "" {
		rec, err := replay.Create(record)
		if err != nil {
			return err
		}
		defer rec.Close()
		acfg.Recorder = rec
	}

	if cfg.Camera {
		d, err := vision.NewMediaPipeDetector(vision.DefaultConfig())
		if err != nil {
			return fmt.Errorf("start detector: %w", err)
		}
		defer d.Close()
		acfg.Camera = capture.NewCamera(capture.CameraConfigFor(cfg.CameraID, cfg.ViewportWidth, cfg.ViewportHeight))
		acfg.Detector = d
	}

	var t *tray.Tray
	if cfg.Tray {
		t = tray.New()
		acfg.Tray = t
	}

	a := app.New(acfg)
	defer a.Close()

	if t == nil {
		return a.Run(ctx)
	}

	// systray owns the main thread; the server runs beside it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.OnQuit(cancel)
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		t.Quit()
	}()
	t.Run()
	cancel()
	return <-errCh
}

func newReplayCmd(dotenv *string) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <file>",
		Short: "Run a recorded landmark session and print the committed gestures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*dotenv)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := app.Replay(cmd.Context(), f, cfg, nil)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range res.Commits {
				o := c.Outcome
				status := "ok"
				if !o.OK {
					status = "failed: " + o.Error()
				}
				fmt.Fprintf(out, "%s\t%-9s\t%.2f\t%s\t%s\n",
					o.At.Format("15:04:05.000"), c.Candidate.Name, c.Candidate.Score, o.Command, status)
			}
			fmt.Fprintf(out, "%d frames, %d commits\n", res.Frames, len(res.Commits))
			return nil
		},
	}
}

// findWebDir looks for the browser tracker page next to the working
// directory, then inside the data directory.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
