package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

// SampleRate is used for every generated cue.
const SampleRate = beep.SampleRate(44100)

// Cue is a short sound played on a UI event.
type Cue int

const (
	CueSelect Cue = iota
	CueSuccess
	CueFailure
)

// Note is one tone of a cue. A zero frequency is a rest.
type Note struct {
	Freq     float64
	Duration time.Duration
}

var (
	speakerOnce  sync.Once
	speakerReady bool
)

// Melody returns the notes of a cue.
func Melody(c Cue) []Note {
	switch c {
	case CueSelect:
		return []Note{{Freq: 880, Duration: 25 * time.Millisecond}}
	case CueSuccess:
		return []Note{
			{Freq: 523.25, Duration: 90 * time.Millisecond},
			{Freq: 659.25, Duration: 90 * time.Millisecond},
			{Freq: 783.99, Duration: 160 * time.Millisecond},
		}
	case CueFailure:
		return []Note{
			{Freq: 392, Duration: 140 * time.Millisecond},
			{Duration: 40 * time.Millisecond},
			{Freq: 261.63, Duration: 220 * time.Millisecond},
		}
	default:
		return nil
	}
}

// Render turns notes into a finite streamer at SampleRate.
func Render(notes []Note) (beep.Streamer, error) {
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		samples := SampleRate.N(n.Duration)
		if n.Freq == 0 {
			parts = append(parts, beep.Silence(samples))
			continue
		}
		tone, err := generators.SineTone(SampleRate, n.Freq)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %.2f Hz tone: %w", n.Freq, err)
		}
		parts = append(parts, beep.Take(samples, tone))
	}
	return beep.Seq(parts...), nil
}

// Player plays cues when enabled. A nil or disabled Player is silent.
type Player struct {
	enabled  bool
	volumeDB float64
	logf     func(string, ...interface{})
}

// NewPlayer returns a player. The speaker is opened on first use.
func NewPlayer(enabled bool, logger func(string, ...interface{})) *Player {
	return &Player{enabled: enabled, volumeDB: -2, logf: logger}
}

// Select plays the menu movement cue.
func (p *Player) Select() { p.play(CueSelect) }

// Success plays the action completed cue.
func (p *Player) Success() { p.play(CueSuccess) }

// Failure plays the action failed cue.
func (p *Player) Failure() { p.play(CueFailure) }

// Stop silences anything still playing.
func (p *Player) Stop() {
	if !speakerReady {
		return
	}
	speaker.Clear()
}

func (p *Player) log(format string, args ...interface{}) {
	if p.logf != nil {
		p.logf(format, args...)
	}
}

func (p *Player) play(c Cue) {
	if p == nil || !p.enabled {
		return
	}

	streamer, err := Render(Melody(c))
	if err != nil {
		p.log("audio: %v", err)
		return
	}

	speakerOnce.Do(func() {
		if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
			p.log("audio: speaker unavailable: %v", err)
			return
		}
		speakerReady = true
	})
	if !speakerReady {
		return
	}

	speaker.Play(&effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   p.volumeDB,
	})
}
