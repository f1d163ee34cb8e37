package orchestrator

import (
	"math"

	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
)

// Dialogue box proportions, relative to the viewport.
const (
	DialogueBoxRatio  float32 = 0.28
	separatorRatio    float32 = 0.30
	separatorWidth    float32 = 1.5
	minPadding        float32 = 100
	paddingRatio      float32 = 0.08
	indicatorRatio    float32 = 0.04
	indicatorLift     float32 = 0.15
	indicatorBobSpeed float32 = 3
	indicatorBob      float32 = 3
)

var (
	boxColor       = drawlist.Premultiply(12, 18, 28, 252)
	fadeBottom     = drawlist.Premultiply(12, 18, 28, 245)
	fadeTop        = drawlist.Color{}
	separatorColor = drawlist.Premultiply(100, 120, 150, 255)
	indicatorColor = drawlist.Premultiply(0, 180, 255, 255)
)

// DialogueBox is the screen geometry of the dialogue overlay.
type DialogueBox struct {
	Top        float32
	Height     float32
	Separator  float32
	Padding    float32
	Indicator  bool
	IndicatorX float32
	IndicatorY float32
}

// LayoutDialogueBox places the dialogue box along the bottom edge of a w by h viewport.
//
// Parameters:
//   - w, h: the viewport size
//   - finished: whether the continue indicator is shown
//   - clock: seconds since start, drives the indicator bob
//
// Returns:
//   - DialogueBox: the box geometry
func LayoutDialogueBox(w, h float32, finished bool, clock float32) DialogueBox {
	boxH := h * DialogueBoxRatio
	top := h - boxH
	pad := max(w*paddingRatio, minPadding)
	b := DialogueBox{
		Top:       top,
		Height:    boxH,
		Separator: top + boxH*separatorRatio,
		Padding:   pad,
		Indicator: finished,
	}
	if finished {
		bob := float32(math.Sin(float64(clock * indicatorBobSpeed)))
		b.IndicatorX = w - pad
		b.IndicatorY = h - boxH*indicatorLift + bob*indicatorBob
	}
	return b
}

// Append adds the box to a solid-color mesh: an opaque band below the separator, a fade
// above it, the separator line and, when finished, the continue triangle.
func (b DialogueBox) Append(m *drawlist.Mesh, w, h float32) {
	m.AppendRect(drawlist.Rect{Y: b.Separator, W: w, H: h - b.Separator}, drawlist.Rect{}, boxColor)
	m.AppendQuad(drawlist.Rect{Y: b.Top, W: w, H: b.Separator - b.Top}, drawlist.Rect{},
		fadeTop, fadeTop, fadeBottom, fadeBottom)
	m.AppendRect(drawlist.Rect{
		X: b.Padding,
		Y: b.Separator - separatorWidth/2,
		W: max(w-2*b.Padding, 0),
		H: separatorWidth,
	}, drawlist.Rect{}, separatorColor)

	if b.Indicator {
		ts := b.Height * indicatorRatio
		x, y := b.IndicatorX, b.IndicatorY
		m.AppendTriangle(x-ts, y-ts, x+ts, y-ts, x, y+ts, indicatorColor)
	}
}
