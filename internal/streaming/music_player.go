package streaming

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/vorbis"
)

// MusicPlayer streams a looping OGG Vorbis track, decoding on demand
// instead of holding the whole PCM track in memory.
type MusicPlayer struct {
	mu sync.Mutex

	streamer  beep.StreamSeekCloser
	resampled beep.Streamer
	format    beep.Format

	volume  float64
	enabled bool
	loaded  bool

	filePath string

	// Reused per frame to avoid allocations in the audio loop
	beepBuffer [][2]float64
}

// NewMusicPlayer creates a music player for filePath.
// If the file fails to load the player outputs silence; the stream goes on.
func NewMusicPlayer(filePath string, volume float64, samplesPerFrame int) *MusicPlayer {
	mp := &MusicPlayer{
		filePath:   filePath,
		volume:     clampVolume(volume),
		enabled:    true,
		beepBuffer: make([][2]float64, samplesPerFrame),
	}

	if err := mp.load(); err != nil {
		log.Printf("⚠️ Background music disabled: %v", err)
	}

	return mp
}

// load opens the OGG file and resamples to SampleRate when needed.
func (mp *MusicPlayer) load() error {
	file, err := os.Open(mp.filePath)
	if err != nil {
		return err
	}

	streamer, format, err := vorbis.Decode(file)
	if err != nil {
		file.Close()
		return fmt.Errorf("decode %s: %w", mp.filePath, err)
	}

	mp.streamer = streamer
	mp.format = format
	mp.loaded = true

	log.Printf("✅ Background music loaded: %s (%d Hz, %d ch)", mp.filePath, format.SampleRate, format.NumChannels)

	if int(format.SampleRate) != SampleRate {
		log.Printf("   Resampling from %d Hz to %d Hz", format.SampleRate, SampleRate)
		mp.resampled = beep.Resample(4, format.SampleRate, beep.SampleRate(SampleRate), mp.streamer)
	} else {
		mp.resampled = mp.streamer
	}

	return nil
}

// ReadSamples fills buffer with interleaved stereo int16 samples, looping
// back to the start of the track at end of file. Silence when not loaded.
func (mp *MusicPlayer) ReadSamples(buffer []int16) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if !mp.loaded || !mp.enabled || mp.resampled == nil {
		clear(buffer)
		return len(buffer)
	}

	numStereoSamples := len(buffer) / 2
	if numStereoSamples > len(mp.beepBuffer) {
		mp.beepBuffer = make([][2]float64, numStereoSamples)
	}
	work := mp.beepBuffer[:numStereoSamples]

	n, ok := mp.resampled.Stream(work)
	if !ok || n < numStereoSamples {
		if err := mp.streamer.Seek(0); err != nil {
			log.Printf("⚠️ Music loop seek failed: %v", err)
		}
		if n < numStereoSamples {
			if m, _ := mp.resampled.Stream(work[n:]); n+m < numStereoSamples {
				clear(work[n+m:])
			}
		}
	}

	for i, frame := range work {
		buffer[i*2] = floatToInt16(frame[0] * mp.volume)
		buffer[i*2+1] = floatToInt16(frame[1] * mp.volume)
	}

	return len(buffer)
}

// floatToInt16 converts a sample in -1.0..1.0 to int16 with soft clipping.
func floatToInt16(sample float64) int16 {
	scaled := sample * 32767.0
	if scaled > 1<<31-1 {
		scaled = 1<<31 - 1
	} else if scaled < -(1 << 31) {
		scaled = -(1 << 31)
	}
	return softLimit(int32(scaled))
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SetVolume adjusts the music volume (0.0 to 1.0).
func (mp *MusicPlayer) SetVolume(v float64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.volume = clampVolume(v)
}

// SetEnabled mutes or unmutes music without stopping the stream.
func (mp *MusicPlayer) SetEnabled(e bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.enabled = e
}

// IsLoaded returns true if music was successfully loaded.
func (mp *MusicPlayer) IsLoaded() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.loaded
}

// Close releases the decoder.
func (mp *MusicPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.loaded = false
	if mp.streamer != nil {
		var c io.Closer = mp.streamer
		return c.Close()
	}
	return nil
}
