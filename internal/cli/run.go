package cli

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/engine"
	"github.com/Carmen-Shannon/aefr-go/engine/audio"
	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/renderer"
	"github.com/Carmen-Shannon/aefr-go/engine/window"
)

// Run opens the stage window and blocks until it is closed, QUIT is typed or ctx is cancelled.
// Must be called on the main goroutine with the OS thread locked.
//
// Parameters:
//   - ctx: cancelled on interrupt
//   - args: flags, see -h
//   - stdio: stdin feeds the console
//
// Returns:
//   - error: a startup error; runtime failures are logged instead
func Run(ctx context.Context, args []string, stdio IO) error {
	fs := newFlagSet("run", stdio)
	configPath := fs.String("config", "", "YAML config file")
	scenarioPath := fs.String("scenario", "", "scenario to open at startup and quick save to (overrides scenario.path)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	path := common.Coalesce(*scenarioPath, cfg.Scenario.Path)

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	present := renderer.PresentModeVSync
	if !cfg.Render.VSync {
		present = renderer.PresentModeUncapped
	}
	r, err := renderer.NewRenderer(win.SurfaceDescriptor(), win.Width(), win.Height(),
		renderer.WithPresentMode(present),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Render.MSAA)),
		renderer.WithForceSoftwareRenderer(cfg.Render.ForceSoftware),
		renderer.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer r.Release()

	player := audio.NewPlayer(
		audio.WithEnabled(cfg.Audio.Enabled),
		audio.WithSampleRate(cfg.Audio.SampleRate),
		audio.WithBuffer(cfg.Audio.Buffer()),
		audio.WithLogger(logger),
	)
	stage, err := newStage(cfg, r, player, logger)
	if err != nil {
		player.Close()
		return err
	}
	defer stage.Close()

	eng, err := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithOrchestrator(stage),
		engine.WithRenderFrameLimit(float64(cfg.Render.FrameLimit)),
		engine.WithProfiling(cfg.Profiling.Enabled, cfg.Profiling.Interval),
		engine.WithQuickSavePath(path),
		engine.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if path != "" {
		stage.Bus().Send(bus.OpenScenario{Path: path})
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go readConsole(ctx, stdio.Stdin, stdio.Stdout, stage.Bus(), eng.Quit, logger)
	go func() {
		<-ctx.Done()
		eng.Quit()
	}()

	logger.Info("stage running", "scenario", path, "audio", player.Enabled())
	eng.Run()
	logger.Info("stage stopped", "frames", eng.Frames())
	return nil
}
