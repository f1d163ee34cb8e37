// Package console parses the text command language typed into the console or piped on
// stdin into bus commands.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/scenario"
)

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("console: empty command")
	// ErrUnknownCommand is returned when the first word is not a command.
	ErrUnknownCommand = errors.New("console: unknown command")
	// ErrMalformed is returned when a known command has bad arguments.
	ErrMalformed = errors.New("console: malformed command")
)

// Help lists the accepted commands, one per line.
const Help = `LOAD <slot 0-4> <atlas path>
ANIM <slot 0-4> <clip> [true|false]
REMOVE <slot 0-4>
BG <image path>
BGM <audio path>
SE <audio path>
STOP
TALK <name>|<affiliation>|<content>
NEXT | PREV | INSERT | DELETE | SKIP | HIDE
JUMP <scene number>
SAVE <scenario path>
OPEN <scenario path>`

// Parse turns one line of input into a command. Keywords are case-insensitive and double
// quotes are stripped from paths.
//
// Parameters:
//   - line: the raw input line
//
// Returns:
//   - bus.Command: the parsed command
//   - error: ErrEmpty, ErrUnknownCommand or a wrapped ErrMalformed
func Parse(line string) (bus.Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrEmpty
	}
	keyword, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(keyword) {
	case "load":
		slotArg, path, _ := strings.Cut(rest, " ")
		slot, err := parseSlot(slotArg)
		if err != nil {
			return nil, err
		}
		path = cleanPath(path)
		if path == "" {
			return nil, malformed("LOAD needs a path")
		}
		return bus.RequestLoad{Slot: slot, Path: path}, nil

	case "anim":
		fields := strings.Fields(rest)
		if len(fields) < 2 {
			return nil, malformed("ANIM needs a slot and a clip")
		}
		slot, err := parseSlot(fields[0])
		if err != nil {
			return nil, err
		}
		loop := true
		if len(fields) > 2 {
			loop = strings.EqualFold(fields[2], "true")
		}
		return bus.SetAnimation{Slot: slot, Clip: fields[1], Loop: loop}, nil

	case "remove":
		slot, err := parseSlot(rest)
		if err != nil {
			return nil, err
		}
		return bus.RemoveCharacter{Slot: slot}, nil

	case "bgm":
		return pathCommand(rest, "BGM", func(p string) bus.Command { return bus.PlayBgm{Path: p} })
	case "se":
		return pathCommand(rest, "SE", func(p string) bus.Command { return bus.PlaySe{Path: p} })
	case "bg":
		return pathCommand(rest, "BG", func(p string) bus.Command { return bus.LoadBackground{Path: p} })
	case "save":
		return pathCommand(rest, "SAVE", func(p string) bus.Command { return bus.SaveScenario{Path: p} })
	case "open":
		return pathCommand(rest, "OPEN", func(p string) bus.Command { return bus.OpenScenario{Path: p} })

	case "stop":
		return noArgs(rest, bus.StopBgm{})
	case "next":
		return noArgs(rest, bus.NextScene{})
	case "prev":
		return noArgs(rest, bus.PrevScene{})
	case "insert":
		return noArgs(rest, bus.InsertScene{})
	case "delete":
		return noArgs(rest, bus.DeleteScene{})
	case "skip":
		return noArgs(rest, bus.SkipTypewriter{})
	case "hide":
		return noArgs(rest, bus.ToggleDialogue{})

	case "jump":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return nil, malformed("JUMP needs a scene number from 1")
		}
		return bus.JumpScene{Index: n}, nil

	case "talk":
		// Parts keep their spacing.
		_, raw, _ := strings.Cut(line, " ")
		parts := strings.Split(raw, "|")
		if len(parts) != 3 {
			return nil, malformed("TALK needs name|affiliation|content")
		}
		return bus.Dialogue{Name: parts[0], Affiliation: parts[1], Content: parts[2]}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, keyword)
}

func parseSlot(s string) (int, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || slot < 0 || slot >= scenario.SlotCount {
		return 0, malformed(fmt.Sprintf("slot %q is not 0-%d", s, scenario.SlotCount-1))
	}
	return slot, nil
}

func cleanPath(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

func pathCommand(rest, name string, build func(string) bus.Command) (bus.Command, error) {
	path := cleanPath(rest)
	if path == "" {
		return nil, malformed(name + " needs a path")
	}
	return build(path), nil
}

func noArgs(rest string, cmd bus.Command) (bus.Command, error) {
	if rest != "" {
		return nil, malformed("unexpected arguments")
	}
	return cmd, nil
}

func malformed(msg string) error {
	return fmt.Errorf("%w: %s", ErrMalformed, msg)
}
