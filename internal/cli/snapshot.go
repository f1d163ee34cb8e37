package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/engine/audio"
	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/orchestrator"
	"github.com/Carmen-Shannon/aefr-go/engine/renderer/snapshot"
	"github.com/Carmen-Shannon/aefr-go/engine/scenario"
)

// ErrSettleTimeout is returned when scene loads do not finish in time.
var ErrSettleTimeout = errors.New("resources did not finish loading")

// Snapshot renders one scene of a scenario headlessly and writes it as a PNG.
//
// Parameters:
//   - ctx: cancelled on interrupt
//   - args: flags, see -h
//   - stdio: stdout receives the output path
//
// Returns:
//   - error: error if the scenario cannot be read, loads time out or the PNG cannot be written
func Snapshot(ctx context.Context, args []string, stdio IO) error {
	fs := newFlagSet("snapshot", stdio)
	configPath := fs.String("config", "", "YAML config file")
	scenarioPath := fs.String("scenario", "", "scenario to render (overrides scenario.path)")
	sceneNumber := fs.Int("scene", 1, "1-based scene number")
	frames := fs.Int("frames", 1, "frames to advance after loading")
	step := fs.Duration("step", time.Second/60, "time advanced per frame")
	width := fs.Int("width", 0, "image width (default window.width)")
	height := fs.Int("height", 0, "image height (default window.height)")
	out := fs.String("out", "frame.png", "output PNG")
	timeout := fs.Duration("timeout", 10*time.Second, "how long to wait for loads")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sceneNumber < 1 || *frames < 1 {
		return fmt.Errorf("%w: -scene and -frames start at 1", ErrUsage)
	}

	cfg, logger, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	w := float32(common.Coalesce(*width, cfg.Window.Width))
	h := float32(common.Coalesce(*height, cfg.Window.Height))

	r := snapshot.NewRenderer(int(w), int(h), snapshot.WithLogger(logger))
	defer r.Release()
	stage, err := newStage(cfg, r, audio.NewNoOp(), logger)
	if err != nil {
		return err
	}
	defer stage.Close()

	if path := common.Coalesce(*scenarioPath, cfg.Scenario.Path); path != "" {
		sc, err := scenario.Load(path)
		if err != nil {
			return err
		}
		stage.Bus().Send(bus.ScenarioLoaded{Path: path, Scenario: sc})
		stage.Bus().Send(bus.JumpScene{Index: *sceneNumber})
	}
	if err := settle(ctx, stage, w, h, *timeout); err != nil {
		return err
	}

	dt := float32(step.Seconds())
	for range *frames {
		list, err := stage.Frame(dt, w, h)
		if err != nil {
			logger.Warn("frame update failed", "error", err)
		}
		if err := r.Render(list); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	if err := r.SavePNG(*out); err != nil {
		return err
	}
	for _, line := range stage.Scene().Logs() {
		logger.Debug("stage log", "line", line)
	}
	fmt.Fprintln(stdio.Stdout, *out)
	return nil
}

// settle runs still frames until the loader is idle and the bus is empty.
func settle(ctx context.Context, stage orchestrator.Orchestrator, w, h float32, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := stage.Frame(0, w, h); err != nil {
			return fmt.Errorf("frame update: %w", err)
		}
		if stage.Loader().Pending() == 0 && stage.Bus().Len() == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %s (%d pending)", ErrSettleTimeout, timeout, stage.Loader().Pending())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}
