package orchestrator

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/loader"
	"github.com/Carmen-Shannon/aefr-go/engine/scene"
)

func validSlot(slot int) bool {
	return slot >= 0 && slot < scene.SlotCount
}

func (o *orchestrator) logf(format string, args ...any) {
	o.scene.Log(fmt.Sprintf(format, args...))
}

func (o *orchestrator) HandleDialogue(c bus.Dialogue) {
	o.scene.SetDialogue(c.Name, c.Affiliation, c.Content)
}

func (o *orchestrator) HandleSetAnimation(c bus.SetAnimation) {
	if !validSlot(c.Slot) {
		o.logf("[error] slot %d out of range", c.Slot)
		return
	}
	ch := o.scene.Character(c.Slot)
	if ch == nil {
		o.logf("[error] slot %d is empty", c.Slot)
		return
	}
	if !ch.SetAnimationByName(c.Clip, c.Loop) {
		o.logf("[error] slot %d has no clip %q (%s)", c.Slot, c.Clip, strings.Join(ch.AnimationNames(), ", "))
		return
	}
	clip := c.Clip
	o.scene.Current().CharAnims[c.Slot] = &clip
}

func (o *orchestrator) HandleRemoveCharacter(c bus.RemoveCharacter) {
	if !validSlot(c.Slot) {
		o.logf("[error] slot %d out of range", c.Slot)
		return
	}
	o.removeCharacter(c.Slot)
	cur := o.scene.Current()
	cur.CharPaths[c.Slot] = nil
	cur.CharAnims[c.Slot] = nil
}

func (o *orchestrator) removeCharacter(slot int) {
	o.loader.Supersede(loader.SlotKey(slot))
	o.scene.ClearSlot(slot)
	o.slotTargets[slot] = ""
}

func (o *orchestrator) HandleLog(c bus.Log) {
	o.scene.Log(c.Message)
}

func (o *orchestrator) HandleNextScene(bus.NextScene) {
	o.navigate(o.scene.Scenario().Next(o.scene.Index()))
}

func (o *orchestrator) HandlePrevScene(bus.PrevScene) {
	o.navigate(o.scene.Scenario().Prev(o.scene.Index()))
}

func (o *orchestrator) HandleInsertScene(bus.InsertScene) {
	o.navigate(o.scene.Scenario().Insert(o.scene.Index()))
}

func (o *orchestrator) HandleDeleteScene(bus.DeleteScene) {
	if o.scene.Scenario().Len() <= 1 {
		o.logf("[scene] cannot delete the only scene")
		return
	}
	o.navigate(o.scene.Scenario().Delete(o.scene.Index()))
}

func (o *orchestrator) HandleJumpScene(c bus.JumpScene) {
	o.navigate(o.scene.Scenario().Jump(c.Index))
}

func (o *orchestrator) HandleSkipTypewriter(bus.SkipTypewriter) {
	o.scene.SkipTypewriter()
}

func (o *orchestrator) HandleToggleDialogue(bus.ToggleDialogue) {
	o.scene.SetDialogueVisible(!o.scene.DialogueVisible())
}

// navigate moves the cursor and, when enabled, brings the stage in line with the scene.
func (o *orchestrator) navigate(index int) {
	o.scene.SetIndex(index)
	o.logf("[scene] %d/%d", o.scene.Index()+1, o.scene.Scenario().Len())
	if o.applyOnNavigate {
		o.applyCurrent()
	}
}

// applyCurrent issues the loads, removals and playback the current scene records. Paths
// that are already shown or in flight are left alone; absent background and music paths
// keep what is playing.
func (o *orchestrator) applyCurrent() {
	cur := o.scene.Current()
	for slot, p := range cur.CharPaths {
		switch {
		case p == nil:
			if o.slotTargets[slot] != "" {
				o.removeCharacter(slot)
			}
		case *p != o.slotTargets[slot]:
			o.requestCharacter(slot, *p)
		default:
			o.applyAnimation(slot)
		}
	}
	if cur.BgPath != nil && *cur.BgPath != o.bgTarget {
		o.requestBackground(*cur.BgPath)
	}
	if cur.BgmPath != nil && *cur.BgmPath != o.bgmTarget {
		o.requestBgm(*cur.BgmPath)
	}
}

// applyAnimation plays the clip the current scene records for slot, if it differs.
func (o *orchestrator) applyAnimation(slot int) {
	ch := o.scene.Character(slot)
	anim := o.scene.Current().CharAnims[slot]
	if ch == nil || anim == nil || ch.CurrentAnimation() == *anim {
		return
	}
	if !ch.SetAnimationByName(*anim, true) {
		o.logger.Debug("recorded clip missing", "slot", slot, "clip", *anim)
	}
}

func (o *orchestrator) HandleRequestLoad(c bus.RequestLoad) {
	if !validSlot(c.Slot) {
		o.logf("[error] slot %d out of range", c.Slot)
		return
	}
	o.requestCharacter(c.Slot, c.Path)
	path := c.Path
	cur := o.scene.Current()
	cur.CharPaths[c.Slot] = &path
	cur.CharAnims[c.Slot] = nil
}

func (o *orchestrator) requestCharacter(slot int, path string) {
	o.logf("[load] %s", path)
	o.slotTargets[slot] = path
	o.loader.RequestLoad(slot, path)
}

func (o *orchestrator) HandleLoadSuccess(c bus.LoadSuccess) {
	if !validSlot(c.Slot) || !o.loader.IsCurrent(loader.SlotKey(c.Slot), c.Generation) {
		o.logger.Debug("stale character discarded", "slot", c.Slot, "path", c.Path, "request_id", c.RequestID)
		c.Character.Release()
		return
	}
	tex, err := o.renderer.CreateTexture(c.Image)
	if err != nil {
		o.logf("[error] texture %s: %v", c.PageName, err)
		c.Character.Release()
		return
	}
	c.Character.SetTexture(tex)
	o.scene.SetCharacter(c.Slot, c.Character, c.Path)
	o.applyAnimation(c.Slot)
	o.logf("[load] slot %d ready: %s (%s)", c.Slot, c.Path, strings.Join(c.Clips, ", "))
	o.logger.Info("character loaded", "slot", c.Slot, "path", c.Path, "request_id", c.RequestID)
}

func (o *orchestrator) HandleLoadBackground(c bus.LoadBackground) {
	o.requestBackground(c.Path)
	path := c.Path
	o.scene.Current().BgPath = &path
}

func (o *orchestrator) requestBackground(path string) {
	o.bgTarget = path
	o.loader.RequestBackground(path)
}

func (o *orchestrator) HandleLoadBackgroundSuccess(c bus.LoadBackgroundSuccess) {
	if !o.loader.IsCurrent(loader.KeyBackground, c.Generation) {
		o.logger.Debug("stale background discarded", "path", c.Path)
		return
	}
	tex, err := o.renderer.CreateTexture(c.Image)
	if err != nil {
		o.logf("[error] texture %s: %v", c.Path, err)
		return
	}
	o.scene.SetBackground(tex, c.Path)
}

func (o *orchestrator) HandleSaveScenario(c bus.SaveScenario) {
	o.loader.SaveScenario(c.Path, o.scene.Scenario())
}

func (o *orchestrator) HandleOpenScenario(c bus.OpenScenario) {
	o.logf("[scenario] opening %s", c.Path)
	o.loader.RequestScenario(c.Path)
}

func (o *orchestrator) HandleScenarioLoaded(c bus.ScenarioLoaded) {
	o.scene.SetScenario(c.Scenario)
	o.logf("[scenario] opened %s (%d scenes)", c.Path, o.scene.Scenario().Len())
	if o.applyOnNavigate {
		o.applyCurrent()
	}
}

func (o *orchestrator) HandlePlayBgm(c bus.PlayBgm) {
	o.requestBgm(c.Path)
	path := c.Path
	o.scene.Current().BgmPath = &path
}

func (o *orchestrator) requestBgm(path string) {
	o.bgmTarget = path
	o.loader.RequestAudio(path, true)
}

func (o *orchestrator) HandlePlaySe(c bus.PlaySe) {
	o.loader.RequestAudio(c.Path, false)
}

func (o *orchestrator) HandleAudioReady(c bus.AudioReady) {
	if !c.Loop {
		if err := o.player.PlaySe(c.Path, c.Data); err != nil {
			o.logf("[error] audio %s: %v", c.Path, err)
		}
		return
	}
	if !o.loader.IsCurrent(loader.KeyBgm, c.Generation) {
		o.logger.Debug("stale bgm discarded", "path", c.Path)
		return
	}
	if err := o.player.PlayBgm(c.Path, c.Data); err != nil {
		o.logf("[error] audio %s: %v", c.Path, err)
	}
}

func (o *orchestrator) HandleStopBgm(bus.StopBgm) {
	o.loader.Supersede(loader.KeyBgm)
	o.bgmTarget = ""
	o.player.StopBgm()
}

// discard drains commands after shutdown, releasing the characters they carry.
type discard struct{}

var _ bus.Handler = discard{}

func (discard) HandleDialogue(bus.Dialogue)                           {}
func (discard) HandleSetAnimation(bus.SetAnimation)                   {}
func (discard) HandleRemoveCharacter(bus.RemoveCharacter)             {}
func (discard) HandleLog(bus.Log)                                     {}
func (discard) HandleNextScene(bus.NextScene)                         {}
func (discard) HandlePrevScene(bus.PrevScene)                         {}
func (discard) HandleInsertScene(bus.InsertScene)                     {}
func (discard) HandleDeleteScene(bus.DeleteScene)                     {}
func (discard) HandleJumpScene(bus.JumpScene)                         {}
func (discard) HandleSkipTypewriter(bus.SkipTypewriter)               {}
func (discard) HandleToggleDialogue(bus.ToggleDialogue)               {}
func (discard) HandleRequestLoad(bus.RequestLoad)                     {}
func (discard) HandleLoadSuccess(c bus.LoadSuccess)                   { c.Character.Release() }
func (discard) HandleLoadBackground(bus.LoadBackground)               {}
func (discard) HandleLoadBackgroundSuccess(bus.LoadBackgroundSuccess) {}
func (discard) HandleSaveScenario(bus.SaveScenario)                   {}
func (discard) HandleOpenScenario(bus.OpenScenario)                   {}
func (discard) HandleScenarioLoaded(bus.ScenarioLoaded)               {}
func (discard) HandlePlayBgm(bus.PlayBgm)                             {}
func (discard) HandlePlaySe(bus.PlaySe)                               {}
func (discard) HandleAudioReady(bus.AudioReady)                       {}
func (discard) HandleStopBgm(bus.StopBgm)                             {}
