// Package cli implements the aefr subcommands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/config"
	"github.com/Carmen-Shannon/aefr-go/engine/audio"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/loader"
	"github.com/Carmen-Shannon/aefr-go/engine/orchestrator"
	"github.com/Carmen-Shannon/aefr-go/engine/scheduler"
)

// ErrUsage is returned for a missing or unknown subcommand.
var ErrUsage = errors.New("usage")

const usage = `usage: aefr <command> [flags]

commands:
  run       open the stage window; stdin accepts console commands
  snapshot  render one scene of a scenario to a PNG without a window
  pack      convert skeleton JSON into a .skel container

run "aefr <command> -h" for the flags of a command`

// IO bundles the standard streams a subcommand may use.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Main dispatches args to a subcommand.
//
// Parameters:
//   - ctx: cancelled on interrupt
//   - args: the command line without the program name
//   - stdio: the standard streams
//
// Returns:
//   - error: ErrUsage, flag.ErrHelp or the subcommand's error
func Main(ctx context.Context, args []string, stdio IO) error {
	if len(args) == 0 {
		fmt.Fprintln(stdio.Stderr, usage)
		return ErrUsage
	}
	switch args[0] {
	case "run":
		return Run(ctx, args[1:], stdio)
	case "snapshot":
		return Snapshot(ctx, args[1:], stdio)
	case "pack":
		return Pack(args[1:], stdio)
	case "help", "-h", "--help":
		fmt.Fprintln(stdio.Stdout, usage)
		return nil
	default:
		fmt.Fprintln(stdio.Stderr, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

// loadConfig reads the config file (or the defaults) and builds its logger.
func loadConfig(path string) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Log.Logger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newStage wires an orchestrator from the config around r.
func newStage(cfg *config.Config, r drawlist.Renderer, player audio.Player, logger logging.Logger) (orchestrator.Orchestrator, error) {
	o, err := orchestrator.NewOrchestrator(r,
		orchestrator.WithScheduler(scheduler.NewScheduler(
			scheduler.WithWorkers(cfg.Scheduler.Workers),
			scheduler.WithLogger(logger),
		)),
		orchestrator.WithLoaderOptions(
			loader.WithWorkers(cfg.Loader.Workers),
			loader.WithQueueSize(cfg.Loader.QueueSize),
			loader.WithMaxTextureSize(cfg.Render.MaxTextureSize),
			loader.WithDefinitionCache(cfg.Loader.CacheDefinitions),
			loader.WithLogger(logger),
		),
		orchestrator.WithPlayer(player),
		orchestrator.WithApplyOnNavigate(cfg.Scenario.ApplyOnNavigate),
		orchestrator.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage: %w", err)
	}
	return o, nil
}

func newFlagSet(name string, stdio IO) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdio.Stderr)
	return fs
}
