package skeleton

import "math"

// Track plays one clip on a pose.
type Track struct {
	Animation *Animation
	Loop      bool
	Time      float32
}

// NewTrack starts a clip at time zero.
func NewTrack(a *Animation, loop bool) *Track {
	return &Track{Animation: a, Loop: loop}
}

// Advance moves the track time forward by dt seconds. Looping tracks keep Time within
// one clip duration so long sessions do not lose float precision.
func (t *Track) Advance(dt float32) {
	if dt <= 0 {
		return
	}
	t.Time += dt
	if t.Loop && t.Animation != nil && t.Animation.Duration > 0 && t.Time >= t.Animation.Duration {
		t.Time = float32(math.Mod(float64(t.Time), float64(t.Animation.Duration)))
	}
}

// AnimationTime maps the track time into the clip. Looping tracks wrap, others hold the
// last frame.
func (t *Track) AnimationTime() float32 {
	if t.Animation == nil {
		return 0
	}
	d := t.Animation.Duration
	if d <= 0 {
		return 0
	}
	if t.Loop {
		return float32(math.Mod(float64(t.Time), float64(d)))
	}
	return min(t.Time, d)
}

// Complete reports whether a non-looping track has reached the end of its clip.
func (t *Track) Complete() bool {
	return t.Animation != nil && !t.Loop && t.Time >= t.Animation.Duration
}

// Apply poses p at the track's current clip time.
func (t *Track) Apply(p *Pose) {
	if t.Animation == nil {
		return
	}
	t.Animation.Apply(p, t.AnimationTime())
}
