package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentWAV encodes n frames of stereo silence at the given rate.
func silentWAV(t *testing.T, rate beep.SampleRate, n int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "silence.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, wav.Encode(f, beep.Silence(n), beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}))
	require.NoError(t, f.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func drain(s beep.Streamer, limit int) int {
	buf := make([][2]float64, 512)
	total := 0
	for total < limit {
		n, ok := s.Stream(buf)
		total += n
		if !ok {
			break
		}
	}
	return total
}

func TestFormatOf(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"a.bin", []byte("RIFF....WAVE"), FormatWAV},
		{"a.bin", []byte("OggS\x00"), FormatVorbis},
		{"a.bin", []byte("fLaC\x00"), FormatFLAC},
		{"a.bin", []byte("ID3\x04"), FormatMP3},
		{"a.bin", []byte{0xff, 0xfb, 0x90}, FormatMP3},
		{"theme.MP3", []byte("????"), FormatMP3},
		{"theme.ogg", []byte("????"), FormatVorbis},
		{"click.flac", nil, FormatFLAC},
	}
	for _, c := range cases {
		got, err := formatOf(c.name, c.data)
		require.NoError(t, err, c.name)
		assert.Equal(t, c.want, got, "%s %q", c.name, c.data)
	}

	_, err := formatOf("notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, "vorbis", FormatVorbis.String())
}

func TestDecodeWAV(t *testing.T) {
	source, format, err := decode("silence.wav", silentWAV(t, 22050, 2205))
	require.NoError(t, err)
	defer source.Close()
	assert.Equal(t, beep.SampleRate(22050), format.SampleRate)
	assert.Equal(t, 2205, source.Len())

	_, _, err = decode("broken.wav", []byte("RIFF but not really"))
	assert.ErrorContains(t, err, "decode broken.wav as wav")
}

func TestPrepareResamplesOneShot(t *testing.T) {
	tr, err := prepare("se.wav", silentWAV(t, 22050, 2205), 44100, false)
	require.NoError(t, err)
	defer tr.source.Close()

	total := drain(tr.streamer, 100000)
	assert.Greater(t, total, 4000, "0.1s at 44.1kHz")
	assert.Less(t, total, 4500)
}

func TestPrepareLoopsMusic(t *testing.T) {
	tr, err := prepare("bgm.wav", silentWAV(t, 22050, 1000), 22050, true)
	require.NoError(t, err)
	defer tr.source.Close()

	assert.Equal(t, 10000, drain(tr.streamer, 10000), "a looped track never drains")
}

func TestNoOpPlayer(t *testing.T) {
	p := NewPlayer(WithEnabled(false))
	defer p.Close()
	assert.False(t, p.Enabled())

	data := silentWAV(t, 22050, 100)
	require.NoError(t, p.PlayBgm("bgm/theme.wav", data))
	assert.Equal(t, "bgm/theme.wav", p.Bgm())

	assert.ErrorIs(t, p.PlayBgm("notes.txt", []byte("hello")), ErrUnsupportedFormat)
	assert.Equal(t, "bgm/theme.wav", p.Bgm(), "a bad file keeps the current music")

	require.NoError(t, p.PlaySe("click.wav", data))
	p.StopBgm()
	assert.Empty(t, p.Bgm())
}
