// Package audio converts arbitrary uploaded audio into the canonical
// mono 16 kHz 16-bit PCM form the speech recognizers expect.
package audio

import (
	"errors"
	"os"
	"sync"
)

// ErrAudioFormat is returned for any input that cannot be converted into a
// valid non-empty PCM buffer. It aborts the audio turn; partially garbled
// audio is never returned.
var ErrAudioFormat = errors.New("unsupported or invalid audio format")

// TargetSampleRateHz is the canonical sample rate for recognition.
const TargetSampleRateHz = 16000

// NormalizedAudio is the canonical mono 16 kHz 16-bit PCM artifact produced
// by the normalizer. It owns a spill file on disk that callers must release
// after transcription completes or fails, on all exit paths.
type NormalizedAudio struct {
	PCM          []byte
	SampleRateHz int

	spillPath   string
	releaseOnce sync.Once
}

// SpillPath returns the path of the on-disk WAV copy, for recognizer
// backends that read from a file.
func (n *NormalizedAudio) SpillPath() string {
	return n.spillPath
}

// DurationSeconds returns the audio duration derived from the PCM length.
func (n *NormalizedAudio) DurationSeconds() float64 {
	if n.SampleRateHz == 0 {
		return 0
	}
	return float64(len(n.PCM)/2) / float64(n.SampleRateHz)
}

// Release removes the spill file. Safe to call multiple times and on every
// exit path.
func (n *NormalizedAudio) Release() {
	n.releaseOnce.Do(func() {
		if n.spillPath != "" {
			os.Remove(n.spillPath)
		}
	})
}
