package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/console"
)

// readConsole feeds lines from r to the bus until r ends, ctx is cancelled or the user quits.
// HELP prints the grammar and QUIT or EXIT calls quit. Malformed lines are reported and dropped.
//
// Parameters:
//   - ctx: stops the reader between lines
//   - r: the input, usually stdin
//   - w: where help and parse errors are printed
//   - sender: the stage's bus
//   - quit: called on QUIT or EXIT
//   - logger: receives dropped lines at debug level
func readConsole(ctx context.Context, r io.Reader, w io.Writer, sender bus.Sender, quit func(), logger logging.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "help", "?":
			fmt.Fprintln(w, console.Help)
			continue
		case "quit", "exit":
			quit()
			return
		}

		cmd, err := console.Parse(line)
		switch {
		case errors.Is(err, console.ErrEmpty):
			continue
		case err != nil:
			logger.Debug("console input dropped", "line", line, "error", err)
			fmt.Fprintln(w, err)
			continue
		}
		if !sender.Send(cmd) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("console input closed", "error", err)
	}
}
