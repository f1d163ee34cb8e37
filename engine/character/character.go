// Package character is one animated skeleton placed on stage: a pose, a playback track,
// a texture and a screen layout.
package character

import (
	"sync"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
)

// MaxDelta caps the time step of a single update in seconds.
const MaxDelta float32 = 0.033

// DefaultScale is the display scale at the 720 pixel reference height.
const DefaultScale float32 = 0.45

// Character is a skeleton instance that can be advanced and painted.
//
// UpdateParallel may run on a scheduler worker; every other method belongs to the frame
// goroutine and must not be called while an update is in flight.
type Character interface {
	// UpdateParallel advances playback by dt (clamped to MaxDelta) and recomputes the pose.
	UpdateParallel(dt float32)
	// SetAnimationByName restarts playback with the named clip.
	//
	// Returns:
	//   - bool: false if the clip does not exist; playback is unchanged
	SetAnimationByName(name string, loop bool) bool
	// AnimationNames lists the clips of the underlying definition.
	AnimationNames() []string
	// CurrentAnimation returns the playing clip's name, or an empty string.
	CurrentAnimation() string
	// Looping reports whether the current clip loops.
	Looping() bool
	// SetSkin switches the attachment skin.
	SetSkin(name string) bool

	// SetTexture attaches the page texture. The previous texture is released.
	SetTexture(tex drawlist.Texture)
	// Texture returns the page texture, or nil before one is attached.
	Texture() drawlist.Texture

	// SetLayout places the skeleton origin on screen with a display scale.
	SetLayout(x, y, scale float32)
	// Layout returns the screen position and display scale.
	Layout() (x, y, scale float32)

	// Pose exposes the current skeleton instance.
	Pose() *skeleton.Pose
	// Definition returns the shared skeleton definition.
	Definition() *skeleton.Definition
	// Release frees the texture. The character must not be painted afterwards.
	Release()
}

type character struct {
	def     *skeleton.Definition
	pose    *skeleton.Pose
	track   *skeleton.Track
	texture drawlist.Texture

	posX, posY float32
	scale      float32

	release sync.Once
}

var _ Character = &character{}

func (c *character) UpdateParallel(dt float32) {
	dt = common.Clamp(dt, 0, MaxDelta)
	c.track.Advance(dt)
	c.pose.SetToSetupPose()
	c.track.Apply(c.pose)
	c.pose.UpdateWorldTransform()
}

func (c *character) SetAnimationByName(name string, loop bool) bool {
	anim := c.def.FindAnimation(name)
	if anim == nil {
		return false
	}
	c.track = skeleton.NewTrack(anim, loop)
	return true
}

func (c *character) AnimationNames() []string {
	return c.def.AnimationNames()
}

func (c *character) CurrentAnimation() string {
	if c.track.Animation == nil {
		return ""
	}
	return c.track.Animation.Name
}

func (c *character) Looping() bool {
	return c.track.Loop
}

func (c *character) SetSkin(name string) bool {
	return c.pose.SetSkin(name)
}

func (c *character) SetTexture(tex drawlist.Texture) {
	if c.texture != nil && c.texture != tex {
		c.texture.Release()
	}
	c.texture = tex
}

func (c *character) Texture() drawlist.Texture {
	return c.texture
}

func (c *character) SetLayout(x, y, scale float32) {
	c.posX, c.posY, c.scale = x, y, scale
}

func (c *character) Layout() (float32, float32, float32) {
	return c.posX, c.posY, c.scale
}

func (c *character) Pose() *skeleton.Pose {
	return c.pose
}

func (c *character) Definition() *skeleton.Definition {
	return c.def
}

func (c *character) Release() {
	c.release.Do(func() {
		if c.texture != nil {
			c.texture.Release()
			c.texture = nil
		}
	})
}
