package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedFormat is returned for data that is not mp3, wav, ogg/vorbis or flac.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// Format is an audio container recognized by the player.
type Format int

const (
	FormatMP3 Format = iota
	FormatWAV
	FormatVorbis
	FormatFLAC
)

func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "mp3"
	case FormatWAV:
		return "wav"
	case FormatVorbis:
		return "vorbis"
	case FormatFLAC:
		return "flac"
	}
	return "unknown"
}

// formatOf detects the container from its magic bytes, falling back to the file extension.
func formatOf(name string, data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return FormatWAV, nil
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatVorbis, nil
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FormatFLAC, nil
	case bytes.HasPrefix(data, []byte("ID3")), len(data) > 1 && data[0] == 0xff && data[1]&0xe0 == 0xe0:
		return FormatMP3, nil
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return FormatMP3, nil
	case ".wav":
		return FormatWAV, nil
	case ".ogg", ".oga":
		return FormatVorbis, nil
	case ".flac":
		return FormatFLAC, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// decode opens an in-memory stream for the data.
func decode(name string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	format, err := formatOf(name, data)
	if err != nil {
		return nil, beep.Format{}, err
	}
	r := bytes.NewReader(data)
	var (
		s  beep.StreamSeekCloser
		bf beep.Format
	)
	switch format {
	case FormatMP3:
		s, bf, err = mp3.Decode(io.NopCloser(r))
	case FormatWAV:
		s, bf, err = wav.Decode(r)
	case FormatVorbis:
		s, bf, err = vorbis.Decode(io.NopCloser(r))
	case FormatFLAC:
		s, bf, err = flac.Decode(r)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s as %s: %w", name, format, err)
	}
	return s, bf, nil
}

// track is a decoded source ready to hand to the speaker.
type track struct {
	name     string
	source   beep.StreamSeekCloser
	streamer beep.Streamer
}

// prepare decodes data and adapts it to the output rate, looping it when asked.
//
// Parameters:
//   - name: the source path
//   - data: the encoded file contents
//   - rate: the device sample rate
//   - loop: whether the track repeats forever
//
// Returns:
//   - *track: the decoded track
//   - error: error if the data cannot be decoded
func prepare(name string, data []byte, rate beep.SampleRate, loop bool) (*track, error) {
	source, format, err := decode(name, data)
	if err != nil {
		return nil, err
	}
	var s beep.Streamer = source
	if loop {
		s = beep.Loop(-1, source)
	}
	if format.SampleRate != rate {
		s = beep.Resample(resampleQuality, format.SampleRate, rate, s)
	}
	return &track{name: name, source: source, streamer: s}, nil
}

const resampleQuality = 4
