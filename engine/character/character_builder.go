package character

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
)

// ErrNoDefinition is returned when a character is built without a skeleton definition.
var ErrNoDefinition = errors.New("character: nil skeleton definition")

// CharacterBuilderOption configures a character at construction.
type CharacterBuilderOption func(*characterOptions)

type characterOptions struct {
	scale     float32
	posX      float32
	posY      float32
	animation string
	loop      bool
	skin      string
}

// WithScale sets the initial display scale.
func WithScale(scale float32) CharacterBuilderOption {
	return func(o *characterOptions) {
		o.scale = scale
	}
}

// WithPosition sets the initial screen position.
func WithPosition(x, y float32) CharacterBuilderOption {
	return func(o *characterOptions) {
		o.posX, o.posY = x, y
	}
}

// WithAnimation selects the initial clip instead of the first one.
func WithAnimation(name string, loop bool) CharacterBuilderOption {
	return func(o *characterOptions) {
		o.animation = name
		o.loop = loop
	}
}

// WithSkin selects a named skin instead of the default one.
func WithSkin(name string) CharacterBuilderOption {
	return func(o *characterOptions) {
		o.skin = name
	}
}

// NewCharacter builds a character from a shared definition. By default it plays the
// first clip looping at DefaultScale.
//
// Parameters:
//   - def: the validated skeleton definition, shared and never mutated
//   - options: builder options
//
// Returns:
//   - Character: the new character in its first posed frame
//   - error: error if def is nil or a requested clip or skin does not exist
func NewCharacter(def *skeleton.Definition, options ...CharacterBuilderOption) (Character, error) {
	if def == nil {
		return nil, ErrNoDefinition
	}
	opts := characterOptions{scale: DefaultScale, loop: true}
	for _, opt := range options {
		opt(&opts)
	}

	c := &character{
		def:   def,
		pose:  skeleton.NewPose(def),
		track: skeleton.NewTrack(nil, true),
		posX:  opts.posX,
		posY:  opts.posY,
		scale: opts.scale,
	}

	if opts.skin != "" && !c.pose.SetSkin(opts.skin) {
		return nil, fmt.Errorf("character %q: skin %q not found", def.Name, opts.skin)
	}

	switch {
	case opts.animation != "":
		if !c.SetAnimationByName(opts.animation, opts.loop) {
			return nil, fmt.Errorf("character %q: animation %q not found", def.Name, opts.animation)
		}
	case len(def.Animations) > 0:
		c.track = skeleton.NewTrack(def.Animations[0], true)
	}

	c.UpdateParallel(0)
	return c, nil
}
