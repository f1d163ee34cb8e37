package audio

import (
	"sync"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// beepPlayer drives the process-wide beep speaker. Music runs behind a Ctrl so it can be cut
// off; effects are played to completion and close their source when drained.
type beepPlayer struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	logger logging.Logger

	bgm      *beep.Ctrl
	bgmTrack *track
	closed   bool
}

var _ Player = &beepPlayer{}

func (p *beepPlayer) PlayBgm(name string, data []byte) error {
	t, err := prepare(name, data, p.rate, true)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		t.source.Close()
		return nil
	}
	p.stopBgmLocked()
	p.bgm = &beep.Ctrl{Streamer: t.streamer}
	p.bgmTrack = t
	speaker.Play(p.bgm)
	p.logger.Info("bgm started", "path", name)
	return nil
}

func (p *beepPlayer) PlaySe(name string, data []byte) error {
	t, err := prepare(name, data, p.rate, false)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		t.source.Close()
		return nil
	}
	speaker.Play(beep.Seq(t.streamer, beep.Callback(func() {
		t.source.Close()
	})))
	p.logger.Debug("se started", "path", name)
	return nil
}

func (p *beepPlayer) StopBgm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopBgmLocked()
}

// stopBgmLocked detaches the music from the speaker. A Ctrl without a streamer reports
// that it is drained, so the speaker drops it on its next pass.
func (p *beepPlayer) stopBgmLocked() {
	if p.bgm == nil {
		return
	}
	speaker.Lock()
	p.bgm.Streamer = nil
	speaker.Unlock()
	p.bgmTrack.source.Close()
	p.logger.Info("bgm stopped", "path", p.bgmTrack.name)
	p.bgm, p.bgmTrack = nil, nil
}

func (p *beepPlayer) Bgm() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bgmTrack == nil {
		return ""
	}
	return p.bgmTrack.name
}

func (p *beepPlayer) Enabled() bool { return true }

func (p *beepPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.stopBgmLocked()
	speaker.Clear()
	speaker.Close()
}
