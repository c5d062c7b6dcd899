package streaming

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"neon-snake/internal/effects"
)

const (
	SampleRate      = 44100
	Channels        = 2
	MaxActiveSounds = 8
	cueVolume       = 0.5
	fadeSeconds     = 0.005
)

// AudioConfig holds audio mixer configuration
type AudioConfig struct {
	MusicEnabled bool
	MusicVolume  float64 // 0.0-1.0, recommended 0.1-0.2 for background
	MusicPath    string
}

// AudioMixer mixes background music with effect cues into s16le stereo
// frames for FFmpeg's audio pipe.
type AudioMixer struct {
	mu              sync.Mutex
	samplesPerFrame int // stereo sample pairs per video frame

	sounds       map[effects.Cue][]int16
	activeSounds []*activeSound

	musicPlayer *MusicPlayer
}

type activeSound struct {
	cue      effects.Cue
	data     []int16
	position int
}

// NewAudioMixer creates a mixer producing one audio frame per video frame at fps.
// Pass nil config for no music.
func NewAudioMixer(config *AudioConfig, fps int) *AudioMixer {
	if fps <= 0 {
		fps = 30
	}
	m := &AudioMixer{
		samplesPerFrame: SampleRate / fps,
		sounds:          make(map[effects.Cue][]int16),
	}

	m.loadSounds()

	if config != nil && config.MusicEnabled && config.MusicPath != "" {
		m.musicPlayer = NewMusicPlayer(config.MusicPath, config.MusicVolume, m.samplesPerFrame)
	}

	return m
}

// loadSounds prefers assets/sounds/<cue>.wav and synthesizes the rest.
func (m *AudioMixer) loadSounds() {
	for _, cue := range []effects.Cue{effects.CueEat, effects.CueGold, effects.CueGameOver, effects.CueVictory} {
		for _, dir := range []string{filepath.Join("assets", "sounds"), filepath.Join("..", "assets", "sounds")} {
			if data, err := loadWAV(filepath.Join(dir, string(cue)+".wav")); err == nil {
				m.sounds[cue] = data
				break
			}
		}
		if _, ok := m.sounds[cue]; !ok {
			m.sounds[cue] = SynthCue(cue)
		}
	}
}

// SynthCue builds a short interleaved stereo arpeggio for cue, nil if unknown.
func SynthCue(cue effects.Cue) []int16 {
	var notes []float64
	step := 0.07
	switch cue {
	case effects.CueEat:
		notes, step = []float64{660, 990}, 0.045
	case effects.CueGold:
		notes = []float64{523.25, 659.25, 783.99, 1046.5}
	case effects.CueGameOver:
		notes, step = []float64{392, 311.13, 233.08}, 0.15
	case effects.CueVictory:
		notes, step = []float64{523.25, 659.25, 783.99, 1046.5, 1318.5}, 0.1
	default:
		return nil
	}

	var out []int16
	for _, f := range notes {
		out = append(out, GenerateTone(f, step, SampleRate)...)
	}
	return out
}

// PlayCue queues the sound for cue. Unknown cues are ignored.
func (m *AudioMixer) PlayCue(cue effects.Cue) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.sounds[cue]
	if !ok || len(data) == 0 {
		return
	}

	m.activeSounds = append(m.activeSounds, &activeSound{cue: cue, data: data})
	if len(m.activeSounds) > MaxActiveSounds {
		m.activeSounds = m.activeSounds[1:]
	}
}

// Active returns the number of cues still playing.
func (m *AudioMixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activeSounds)
}

// FrameBytes returns the size of one GenerateFrame result.
func (m *AudioMixer) FrameBytes() int {
	return m.samplesPerFrame * Channels * 2
}

// GenerateFrame mixes one video frame worth of audio.
// Soft limiting above ±30000 keeps stacked cues from clipping harshly.
func (m *AudioMixer) GenerateFrame() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	mixBuffer := make([]int32, m.samplesPerFrame*Channels)

	// Music first (lowest priority, continuous)
	if m.musicPlayer != nil && m.musicPlayer.IsLoaded() {
		musicSamples := make([]int16, len(mixBuffer))
		m.musicPlayer.ReadSamples(musicSamples)
		for i := range mixBuffer {
			mixBuffer[i] += int32(musicSamples[i])
		}
	}

	alive := m.activeSounds[:0]
	for _, s := range m.activeSounds {
		toRead := min(len(mixBuffer), len(s.data)-s.position)
		for i := 0; i < toRead; i++ {
			mixBuffer[i] += int32(float64(s.data[s.position+i]) * cueVolume)
		}
		s.position += toRead
		if s.position < len(s.data) {
			alive = append(alive, s)
		}
	}
	m.activeSounds = alive

	output := make([]byte, m.FrameBytes())
	for i, sample := range mixBuffer {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(softLimit(sample)))
	}
	return output
}

// softLimit compresses above ±30000 then hard clamps to int16.
func softLimit(sample int32) int16 {
	if sample > 30000 {
		sample = 30000 + (sample-30000)/4
	} else if sample < -30000 {
		sample = -30000 + (sample+30000)/4
	}

	if sample > math.MaxInt16 {
		sample = math.MaxInt16
	} else if sample < math.MinInt16 {
		sample = math.MinInt16
	}
	return int16(sample)
}

// Close releases the music decoder.
func (m *AudioMixer) Close() {
	if m.musicPlayer != nil {
		m.musicPlayer.Close()
	}
}

// loadWAV loads a 16-bit PCM WAV file and returns the raw samples
func loadWAV(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Skip 44-byte WAV header
	if len(data) < 44 {
		return nil, fmt.Errorf("%s: too short for a WAV header", path)
	}

	pcmData := data[44:]
	samples := make([]int16, len(pcmData)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcmData[i*2:]))
	}

	return samples, nil
}

// GenerateTone generates an interleaved stereo sine with short fades at
// both ends so consecutive notes don't click.
func GenerateTone(frequency float64, duration float64, sampleRate int) []int16 {
	numSamples := int(duration * float64(sampleRate))
	samples := make([]int16, numSamples*2)
	fade := int(fadeSeconds * float64(sampleRate))

	for i := 0; i < numSamples; i++ {
		t := float64(i) / float64(sampleRate)
		gain := 1.0
		if fade > 0 {
			if i < fade {
				gain = float64(i) / float64(fade)
			} else if tail := numSamples - 1 - i; tail < fade {
				gain = float64(tail) / float64(fade)
			}
		}
		sample := int16(math.Sin(2*math.Pi*frequency*t) * 16000 * gain)
		samples[i*2] = sample   // Left
		samples[i*2+1] = sample // Right
	}

	return samples
}
