package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/squadclash/model"
)

const (
	sampleRate = beep.SampleRate(44100)
)

// FeedbackPlayer plays short synthesised cues for engine feedback. Without an
// audio device every call is a no-op.
type FeedbackPlayer struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	muted       map[model.Feedback]bool
}

func NewFeedbackPlayer() *FeedbackPlayer {
	return &FeedbackPlayer{
		mixer: &beep.Mixer{},
		muted: make(map[model.Feedback]bool),
	}
}

// Initialize opens the speaker. It is safe to call twice.
func (fp *FeedbackPlayer) Initialize() error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100)); err != nil {
		return err
	}
	speaker.Play(fp.mixer)
	fp.initialized = true
	return nil
}

func (fp *FeedbackPlayer) Cleanup() {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if !fp.initialized {
		return
	}
	speaker.Lock()
	fp.mixer.Clear()
	speaker.Unlock()
	fp.initialized = false
}

// Mute silences one kind of feedback.
func (fp *FeedbackPlayer) Mute(kind model.Feedback, muted bool) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.muted[kind] = muted
}

// PlayFeedback queues the cue of kind on the mixer and returns at once.
func (fp *FeedbackPlayer) PlayFeedback(kind model.Feedback) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if !fp.initialized || fp.muted[kind] {
		return
	}
	voice := Voice(kind)
	if voice == nil {
		log.WithField("feedback", kind.Name()).Debug("no voice")
		return
	}
	speaker.Lock()
	fp.mixer.Add(voice)
	speaker.Unlock()
}

// Voice builds a fresh, finite streamer for kind, or nil when kind has no cue.
func Voice(kind model.Feedback) beep.Streamer {
	switch kind {
	case model.FeedbackInvalid:
		return NewToneGenerator(sampleRate, 150*time.Millisecond, 0.2, 120, 127)
	case model.FeedbackSelect:
		return NewToneGenerator(sampleRate, 60*time.Millisecond, 0.15, 660)
	case model.FeedbackAdmit:
		return NewToneGenerator(sampleRate, 40*time.Millisecond, 0.1, 880)
	case model.FeedbackHit:
		return NewToneGenerator(sampleRate, 120*time.Millisecond, 0.2, 220, 330)
	case model.FeedbackSettle:
		return NewToneGenerator(sampleRate, 200*time.Millisecond, 0.15, 150)
	case model.FeedbackWin:
		return beep.Seq(
			NewToneGenerator(sampleRate, 130*time.Millisecond, 0.2, 523.25),
			NewToneGenerator(sampleRate, 130*time.Millisecond, 0.2, 659.25),
			NewToneGenerator(sampleRate, 260*time.Millisecond, 0.2, 783.99),
		)
	case model.FeedbackLose:
		return beep.Seq(
			NewToneGenerator(sampleRate, 170*time.Millisecond, 0.2, 392),
			NewToneGenerator(sampleRate, 170*time.Millisecond, 0.2, 329.63),
			NewToneGenerator(sampleRate, 340*time.Millisecond, 0.2, 261.63),
		)
	default:
		return nil
	}
}

// ToneGenerator sums sine partials under a linear decay envelope and stops
// after its length.
type ToneGenerator struct {
	sr     beep.SampleRate
	pos    int
	length int
	gain   float64
	freqs  []float64
}

func NewToneGenerator(sr beep.SampleRate, d time.Duration, gain float64, freqs ...float64) *ToneGenerator {
	return &ToneGenerator{
		sr:     sr,
		length: sr.N(d),
		gain:   gain,
		freqs:  freqs,
	}
}

func (g *ToneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	if g.pos >= g.length {
		return 0, false
	}
	for i := range samples {
		if g.pos >= g.length {
			return i, true
		}
		t := float64(g.pos) / float64(g.sr)
		envelope := 1 - float64(g.pos)/float64(g.length)
		v := 0.0
		for _, f := range g.freqs {
			v += math.Sin(2 * math.Pi * f * t)
		}
		if len(g.freqs) > 0 {
			v /= float64(len(g.freqs))
		}
		v *= g.gain * envelope
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *ToneGenerator) Err() error {
	return nil
}
