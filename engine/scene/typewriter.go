package scene

// DefaultTypewriterInterval is the time between two revealed runes, in seconds.
const DefaultTypewriterInterval float32 = 0.03

// Typewriter reveals a text one rune at a time.
type Typewriter struct {
	runes    []rune
	visible  int
	timer    float32
	interval float32
}

// NewTypewriter creates an empty typewriter revealing one rune per interval seconds.
func NewTypewriter(interval float32) *Typewriter {
	if interval <= 0 {
		interval = DefaultTypewriterInterval
	}
	return &Typewriter{interval: interval}
}

// Restart replaces the text and hides all of it.
func (t *Typewriter) Restart(text string) {
	t.runes = []rune(text)
	t.visible = 0
	t.timer = 0
}

// Reveal replaces the text and shows all of it at once.
func (t *Typewriter) Reveal(text string) {
	t.runes = []rune(text)
	t.visible = len(t.runes)
	t.timer = 0
}

// Finish shows the rest of the current text.
func (t *Typewriter) Finish() {
	t.visible = len(t.runes)
	t.timer = 0
}

// Advance moves the reveal forward by dt seconds.
//
// Parameters:
//   - dt: elapsed seconds since the last call
//
// Returns:
//   - bool: true if at least one rune was revealed
func (t *Typewriter) Advance(dt float32) bool {
	if t.Done() || dt <= 0 {
		return false
	}
	t.timer += dt
	before := t.visible
	for t.timer >= t.interval && t.visible < len(t.runes) {
		t.timer -= t.interval
		t.visible++
	}
	if t.Done() {
		t.timer = 0
	}
	return t.visible != before
}

// Done reports whether the whole text is visible.
func (t *Typewriter) Done() bool {
	return t.visible >= len(t.runes)
}

// Visible returns the number of revealed runes.
func (t *Typewriter) Visible() int {
	return t.visible
}

// Text returns the revealed prefix.
func (t *Typewriter) Text() string {
	return string(t.runes[:t.visible])
}
