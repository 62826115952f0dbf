package audio

import (
	"bytes"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	pcmFormat       = 1
	monoChannels    = 1
	unsignedOffset8 = 128
	bitDepth8       = 8
	tempWAVPattern  = "voicegen-*.wav"
)

// EncodeWAV renders wave as mono integer PCM at bitDepth. Samples are clamped to [-1, 1].
func EncodeWAV(wave Waveform, bitDepth int) ([]byte, error) {
	waveErr := wave.Validate()
	if waveErr != nil {
		return nil, waveErr
	}

	bitDepthErr := validateBitDepth(bitDepth)
	if bitDepthErr != nil {
		return nil, bitDepthErr
	}

	// The encoder seeks back to patch the header, so it needs a file rather than a buffer.
	tempFile, createErr := os.CreateTemp("", tempWAVPattern)
	if createErr != nil {
		return nil, fmt.Errorf("failed to create temp file for wav output: %w", createErr)
	}

	defer func() {
		_ = os.Remove(tempFile.Name())
	}()

	writeErr := writeWAV(tempFile, wave, bitDepth)

	closeErr := tempFile.Close()
	if writeErr != nil {
		return nil, writeErr
	}

	if closeErr != nil {
		return nil, fmt.Errorf("failed to close wav file: %w", closeErr)
	}

	data, readErr := os.ReadFile(tempFile.Name())
	if readErr != nil {
		return nil, fmt.Errorf("failed to read wav file: %w", readErr)
	}

	return data, nil
}

func writeWAV(file *os.File, wave Waveform, bitDepth int) error {
	fullScale := float64(int64(1)<<(bitDepth-1) - 1)
	data := make([]int, len(wave.Samples))

	for i, sample := range wave.Samples {
		clamped := math.Max(-1.0, math.Min(1.0, sample))
		data[i] = int(math.Round(clamped * fullScale))
	}

	encoder := wav.NewEncoder(file, wave.SampleRate, bitDepth, monoChannels, pcmFormat)
	buffer := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{SampleRate: wave.SampleRate, NumChannels: monoChannels},
		SourceBitDepth: bitDepth,
	}

	writeErr := encoder.Write(buffer)
	if writeErr != nil {
		return fmt.Errorf("failed to encode wav samples: %w", writeErr)
	}

	closeErr := encoder.Close()
	if closeErr != nil {
		return fmt.Errorf("failed to finalize wav header: %w", closeErr)
	}

	return nil
}

// DecodeWAV reads integer PCM WAV data into a mono waveform. Multi-channel input is
// mixed down by averaging the channels of each frame.
func DecodeWAV(data []byte) (Waveform, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return Waveform{}, fmt.Errorf("%w: not a PCM wav file", ErrUnsupportedWAVInput)
	}

	buffer, bufferErr := decoder.FullPCMBuffer()
	if bufferErr != nil {
		return Waveform{}, fmt.Errorf("failed to decode wav samples: %w", bufferErr)
	}

	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)

	if channels < 1 || bitDepth < bitDepth8 || bitDepth > BitDepth32 {
		return Waveform{}, fmt.Errorf(
			"%w: %d channels at %d bits",
			ErrUnsupportedWAVInput,
			channels,
			bitDepth,
		)
	}

	wave := Waveform{
		Samples:    mixDown(buffer.Data, channels, bitDepth),
		SampleRate: int(decoder.SampleRate),
	}

	waveErr := wave.Validate()
	if waveErr != nil {
		return Waveform{}, waveErr
	}

	return wave, nil
}

func mixDown(data []int, channels, bitDepth int) []float64 {
	fullScale := float64(int64(1) << (bitDepth - 1))
	offset := 0

	// 8-bit PCM is unsigned.
	if bitDepth == bitDepth8 {
		offset = unsignedOffset8
	}

	frames := len(data) / channels
	samples := make([]float64, frames)

	for frame := range frames {
		sum := 0.0
		for channel := range channels {
			sum += float64(data[frame*channels+channel] - offset)
		}

		samples[frame] = sum / float64(channels) / fullScale
	}

	return samples
}
