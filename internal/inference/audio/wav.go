package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavFormat describes the fmt chunk of a RIFF/WAVE file.
type wavFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// isWAV reports whether data starts with a RIFF/WAVE header.
func isWAV(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WAVE"
}

// decodeWAV walks the RIFF chunks of a WAV file and returns mono int16
// samples at the file's native sample rate. Multi-channel input is downmixed
// by averaging; 8-bit unsigned PCM is widened to 16-bit.
func decodeWAV(data []byte) ([]int16, int, error) {
	if len(data) < 12 {
		return nil, 0, fmt.Errorf("wav data too short: %d bytes", len(data))
	}
	if !isWAV(data) {
		return nil, 0, fmt.Errorf("missing RIFF/WAVE header")
	}

	var format *wavFormat
	var pcm []byte

	// Chunk walk: tolerate LIST/INFO and other chunks between fmt and data.
	off := 12
	for off+8 <= len(data) {
		chunkID := string(data[off : off+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if chunkSize < 0 || body > len(data) {
			return nil, 0, fmt.Errorf("corrupt chunk %q at offset %d", chunkID, off)
		}
		end := body + chunkSize
		if end > len(data) {
			// Some encoders write a data size larger than the actual payload
			// when streaming; clamp to what is present.
			end = len(data)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short: %d bytes", chunkSize)
			}
			format = &wavFormat{
				AudioFormat:   binary.LittleEndian.Uint16(data[body : body+2]),
				NumChannels:   binary.LittleEndian.Uint16(data[body+2 : body+4]),
				SampleRate:    binary.LittleEndian.Uint32(data[body+4 : body+8]),
				BitsPerSample: binary.LittleEndian.Uint16(data[body+14 : body+16]),
			}
		case "data":
			pcm = data[body:end]
		}

		// Chunks are word-aligned.
		off = end
		if chunkSize%2 == 1 {
			off++
		}
	}

	if format == nil {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if pcm == nil {
		return nil, 0, fmt.Errorf("missing data chunk")
	}
	if format.AudioFormat != 1 {
		return nil, 0, fmt.Errorf("unsupported audio format %d (only PCM)", format.AudioFormat)
	}
	if format.NumChannels == 0 {
		return nil, 0, fmt.Errorf("invalid channel count 0")
	}
	if format.SampleRate == 0 {
		return nil, 0, fmt.Errorf("invalid sample rate 0")
	}

	var samples []int16
	switch format.BitsPerSample {
	case 16:
		n := len(pcm) / 2
		samples = make([]int16, n)
		for i := 0; i < n; i++ {
			samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		}
	case 8:
		// 8-bit WAV is unsigned with a 128 midpoint.
		samples = make([]int16, len(pcm))
		for i, b := range pcm {
			samples[i] = int16(int(b)-128) << 8
		}
	default:
		return nil, 0, fmt.Errorf("unsupported bit depth %d", format.BitsPerSample)
	}

	if format.NumChannels > 1 {
		samples = downmix(samples, int(format.NumChannels))
	}

	return samples, int(format.SampleRate), nil
}

// downmix averages interleaved channels into mono.
func downmix(samples []int16, channels int) []int16 {
	frames := len(samples) / channels
	out := make([]int16, frames)
	for f := 0; f < frames; f++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(samples[f*channels+c])
		}
		out[f] = int16(sum / channels)
	}
	return out
}

// resample converts samples from srcRate to dstRate with linear
// interpolation. Rates equal is a pass-through.
func resample(samples []int16, srcRate, dstRate int) []int16 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	outLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if outLen == 0 {
		return nil
	}

	out := make([]int16, outLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		a := float64(samples[idx])
		b := float64(samples[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}

// encodeWAV wraps mono 16-bit samples in a canonical 44-byte WAV header.
func encodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)
	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes(), nil
}

// pcmBytes converts int16 samples to little-endian bytes.
func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
