package scene

// DefaultLogCapacity is the number of console lines kept.
const DefaultLogCapacity = 200

// LogRing keeps the most recent console lines, dropping the oldest when full.
type LogRing struct {
	lines []string
	start int
	n     int
}

// NewLogRing creates a ring holding up to capacity lines.
func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogRing{lines: make([]string, capacity)}
}

// Push appends a line.
func (r *LogRing) Push(line string) {
	if r.n < len(r.lines) {
		r.lines[(r.start+r.n)%len(r.lines)] = line
		r.n++
		return
	}
	r.lines[r.start] = line
	r.start = (r.start + 1) % len(r.lines)
}

// Len returns the number of stored lines.
func (r *LogRing) Len() int {
	return r.n
}

// Lines returns the stored lines, oldest first.
func (r *LogRing) Lines() []string {
	out := make([]string, r.n)
	for i := range out {
		out[i] = r.lines[(r.start+i)%len(r.lines)]
	}
	return out
}

// Last returns the newest line, or "" when empty.
func (r *LogRing) Last() string {
	if r.n == 0 {
		return ""
	}
	return r.lines[(r.start+r.n-1)%len(r.lines)]
}
