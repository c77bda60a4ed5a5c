package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Normalizer converts heterogeneous audio uploads into NormalizedAudio.
// WAV/PCM input is decoded in process; other containers (webm, ogg, mp3
// voice notes) are converted through an external ffmpeg binary when one is
// available.
type Normalizer struct {
	ffmpegPath string
	spillDir   string
}

// NewNormalizer creates a normalizer. ffmpegPath may name a binary on PATH;
// spillDir receives the temporary WAV artifacts.
func NewNormalizer(ffmpegPath, spillDir string) *Normalizer {
	if spillDir == "" {
		spillDir = os.TempDir()
	}
	return &Normalizer{ffmpegPath: ffmpegPath, spillDir: spillDir}
}

// Normalize converts raw into mono 16 kHz 16-bit PCM. Any conversion or
// validation failure wraps ErrAudioFormat and aborts the turn.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte) (*NormalizedAudio, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrAudioFormat)
	}

	var samples []int16
	if isWAV(raw) {
		decoded, srcRate, err := decodeWAV(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAudioFormat, err)
		}
		samples = resample(decoded, srcRate, TargetSampleRateHz)
	} else {
		pcm, err := n.convertWithFFmpeg(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAudioFormat, err)
		}
		samples = make([]int16, len(pcm)/2)
		for i := range samples {
			samples[i] = int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8)
		}
	}

	// A zero-length result is a format error, never a silent success.
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: conversion produced no audio", ErrAudioFormat)
	}

	wav, err := encodeWAV(samples, TargetSampleRateHz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioFormat, err)
	}

	spillPath := filepath.Join(n.spillDir, uuid.NewString()+".wav")
	if err := os.WriteFile(spillPath, wav, 0o600); err != nil {
		return nil, fmt.Errorf("%w: spill write: %v", ErrAudioFormat, err)
	}

	normalized := &NormalizedAudio{
		PCM:          pcmBytes(samples),
		SampleRateHz: TargetSampleRateHz,
		spillPath:    spillPath,
	}

	log.Debug().
		Float64("durationSeconds", normalized.DurationSeconds()).
		Int("pcmBytes", len(normalized.PCM)).
		Msg("Audio normalized")

	return normalized, nil
}

// convertWithFFmpeg shells out to ffmpeg for non-WAV containers, reading the
// upload from stdin and emitting raw s16le PCM on stdout.
func (n *Normalizer) convertWithFFmpeg(ctx context.Context, raw []byte) ([]byte, error) {
	if n.ffmpegPath == "" {
		return nil, fmt.Errorf("no converter configured for non-WAV input")
	}
	if _, err := exec.LookPath(n.ffmpegPath); err != nil {
		return nil, fmt.Errorf("converter %s not available: %v", n.ffmpegPath, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, n.ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-ar", fmt.Sprint(TargetSampleRateHz),
		"-ac", "1",
		"-f", "s16le",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(raw)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %v: %s", err, stderr.String())
	}
	return out.Bytes(), nil
}
