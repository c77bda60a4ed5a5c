package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"testing"
)

// makeWAV builds a PCM WAV file with the given shape for tests.
func makeWAV(t *testing.T, samples []int16, sampleRate, channels int) []byte {
	t.Helper()

	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}

	dataSize := uint32(len(raw))
	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(raw)
	return buf.Bytes()
}

// sine generates a test tone.
func sine(n int, freq float64, sampleRate int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(10000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestNormalize_AlreadyCanonical(t *testing.T) {
	n := NewNormalizer("", t.TempDir())
	wav := makeWAV(t, sine(16000, 440, 16000), 16000, 1)

	got, err := n.Normalize(context.Background(), wav)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	defer got.Release()

	if got.SampleRateHz != TargetSampleRateHz {
		t.Errorf("expected sample rate %d, got %d", TargetSampleRateHz, got.SampleRateHz)
	}
	if len(got.PCM) != 16000*2 {
		t.Errorf("expected %d PCM bytes, got %d", 16000*2, len(got.PCM))
	}
	if d := got.DurationSeconds(); d < 0.99 || d > 1.01 {
		t.Errorf("expected ~1s duration, got %f", d)
	}
}

func TestNormalize_ResamplesAndDownmixes(t *testing.T) {
	n := NewNormalizer("", t.TempDir())

	// 1 second of stereo 44.1kHz audio.
	mono := sine(44100, 440, 44100)
	stereo := make([]int16, len(mono)*2)
	for i, s := range mono {
		stereo[i*2] = s
		stereo[i*2+1] = s
	}
	wav := makeWAV(t, stereo, 44100, 2)

	got, err := n.Normalize(context.Background(), wav)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	defer got.Release()

	if got.SampleRateHz != TargetSampleRateHz {
		t.Errorf("expected sample rate %d, got %d", TargetSampleRateHz, got.SampleRateHz)
	}
	// 44100 -> 16000 over one second gives one second at 16kHz.
	if d := got.DurationSeconds(); d < 0.99 || d > 1.01 {
		t.Errorf("expected ~1s duration after resample, got %f", d)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	n := NewNormalizer("", t.TempDir())

	_, err := n.Normalize(context.Background(), nil)
	if !errors.Is(err, ErrAudioFormat) {
		t.Fatalf("expected ErrAudioFormat, got %v", err)
	}
}

func TestNormalize_ZeroLengthData(t *testing.T) {
	n := NewNormalizer("", t.TempDir())
	wav := makeWAV(t, nil, 16000, 1)

	_, err := n.Normalize(context.Background(), wav)
	if !errors.Is(err, ErrAudioFormat) {
		t.Fatalf("expected ErrAudioFormat for zero-length audio, got %v", err)
	}
}

func TestNormalize_NonWAVWithoutConverter(t *testing.T) {
	n := NewNormalizer("", t.TempDir())

	_, err := n.Normalize(context.Background(), []byte("OggS garbage that is not audio"))
	if !errors.Is(err, ErrAudioFormat) {
		t.Fatalf("expected ErrAudioFormat for unknown container, got %v", err)
	}
}

func TestNormalize_TruncatedHeader(t *testing.T) {
	n := NewNormalizer("", t.TempDir())
	wav := makeWAV(t, sine(100, 440, 16000), 16000, 1)

	_, err := n.Normalize(context.Background(), wav[:20])
	if !errors.Is(err, ErrAudioFormat) {
		t.Fatalf("expected ErrAudioFormat for truncated file, got %v", err)
	}
}

func TestRelease_RemovesSpillAndIsIdempotent(t *testing.T) {
	n := NewNormalizer("", t.TempDir())
	wav := makeWAV(t, sine(1600, 440, 16000), 16000, 1)

	got, err := n.Normalize(context.Background(), wav)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	spill := got.SpillPath()
	if _, err := os.Stat(spill); err != nil {
		t.Fatalf("expected spill file to exist: %v", err)
	}

	got.Release()
	if _, err := os.Stat(spill); !os.IsNotExist(err) {
		t.Errorf("expected spill file removed, stat err=%v", err)
	}

	// Second release must be a no-op.
	got.Release()
}

func TestDecodeWAV_EightBit(t *testing.T) {
	// Hand-build an 8-bit mono file: silence at the 128 midpoint.
	data := make([]byte, 200)
	for i := range data {
		data[i] = 128
	}
	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint32(8000))
	binary.Write(buf, binary.LittleEndian, uint32(8000))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(8))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	samples, rate, err := decodeWAV(buf.Bytes())
	if err != nil {
		t.Fatalf("decodeWAV failed: %v", err)
	}
	if rate != 8000 {
		t.Errorf("expected rate 8000, got %d", rate)
	}
	if len(samples) != 200 {
		t.Errorf("expected 200 samples, got %d", len(samples))
	}
	for i, s := range samples {
		if s != 0 {
			t.Fatalf("expected silence at sample %d, got %d", i, s)
		}
	}
}

func TestResample_HalvesRate(t *testing.T) {
	in := sine(8000, 440, 32000)
	out := resample(in, 32000, 16000)
	if len(out) != 4000 {
		t.Errorf("expected 4000 samples, got %d", len(out))
	}
}
