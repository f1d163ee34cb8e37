package loader

import (
	"strconv"
	"sync"
)

// Generation keys for targets that only ever show the latest request.
const (
	KeyBackground = "background"
	KeyBgm        = "bgm"
)

// SlotKey returns the generation key of a character slot.
func SlotKey(slot int) string {
	return "slot:" + strconv.Itoa(slot)
}

// generations counts requests per target. A result is current only while no newer request
// for the same target has been made.
type generations struct {
	mu      sync.Mutex
	current map[string]uint64
}

func newGenerations() *generations {
	return &generations{current: make(map[string]uint64)}
}

func (g *generations) next(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current[key]++
	return g.current[key]
}

func (g *generations) isCurrent(key string, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current[key] == gen
}
