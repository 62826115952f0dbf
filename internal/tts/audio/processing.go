// Package audio holds the waveform type passed between the synthesis backends and the
// speech engine, the post-processing applied to finished speech, and WAV encoding.
package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Default post-processing settings. The band keeps the telephone speech range.
const (
	DefaultBitDepth            = 16
	DefaultHighPass            = 300
	DefaultLowPass             = 3000
	DefaultCompressThresholdDB = -20.0
	DefaultCompressRatio       = 2.0
	DefaultVolume              = 1.0
)

// Supported output bit depths.
const (
	BitDepth16 = 16
	BitDepth24 = 24
	BitDepth32 = 32
)

// Quality validation limits.
const (
	MaxSampleRate      = 192000
	MaxVolume          = 10.0
	MaxFilterFrequency = 20000
	normalizePeak      = 0.95
	butterworthQ       = math.Sqrt2 / 2
)

const (
	errFmtSampleRateRange     = "%w: sample rate must be between 1 and %d Hz, got %d"
	errFmtBitDepthValues      = "%w: bit depth must be 16, 24, or 32, got %d"
	errFmtFadeInNonNegative   = "%w: fade in must be non-negative"
	errFmtFadeOutNonNegative  = "%w: fade out must be non-negative"
	errFmtHighPassRange       = "%w: high pass filter must be between 0 and %d Hz"
	errFmtLowPassRange        = "%w: low pass filter must be between 0 and %d Hz"
	errFmtBandOrder           = "%w: high pass %d Hz must be below low pass %d Hz"
	errFmtVolumeRange         = "%w: volume must be between 0.0 and %.1f"
	errFmtCompressThreshold   = "%w: compression threshold must be at most 0 dB"
	errFmtCompressRatio       = "%w: compression ratio must be 0 (off) or at least 1"
	errFmtSampleRateMismatch  = "%w: %d Hz and %d Hz"
	errFmtNegativePauseLength = "%w: pause must be non-negative"
)

// Common errors for the audio package.
var (
	ErrInvalidQuality      = errors.New("invalid quality settings")
	ErrInvalidWaveform     = errors.New("invalid waveform")
	ErrSampleRateMismatch  = errors.New("waveforms have different sample rates")
	ErrUnsupportedWAVInput = errors.New("unsupported WAV input")
)

// Waveform is mono audio as float samples in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playing time of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}

	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// Validate checks that the waveform has a usable sample rate.
func (w Waveform) Validate() error {
	if w.SampleRate <= 0 || w.SampleRate > MaxSampleRate {
		return fmt.Errorf(errFmtSampleRateRange, ErrInvalidWaveform, MaxSampleRate, w.SampleRate)
	}

	return nil
}

// Concat joins waveforms in order with pause seconds of silence between them. Every
// waveform must share the same sample rate.
func Concat(waves []Waveform, pause float64) (Waveform, error) {
	if pause < 0 {
		return Waveform{}, fmt.Errorf(errFmtNegativePauseLength, ErrInvalidWaveform)
	}

	if len(waves) == 0 {
		return Waveform{}, nil
	}

	rate := waves[0].SampleRate
	gap := int(pause * float64(rate))
	total := gap * (len(waves) - 1)

	for _, wave := range waves {
		if wave.SampleRate != rate {
			return Waveform{}, fmt.Errorf(errFmtSampleRateMismatch, ErrSampleRateMismatch, rate, wave.SampleRate)
		}

		total += len(wave.Samples)
	}

	samples := make([]float64, 0, total)

	for i, wave := range waves {
		if i > 0 {
			samples = append(samples, make([]float64, gap)...)
		}

		samples = append(samples, wave.Samples...)
	}

	return Waveform{Samples: samples, SampleRate: rate}, nil
}

// Quality holds the post-processing applied to finished speech. Zero values turn the
// corresponding effect off.
type Quality struct {
	BitDepth            int     `json:"bitDepth"`
	Volume              float64 `json:"volume"`
	FadeIn              float64 `json:"fadeIn,omitempty"`
	FadeOut             float64 `json:"fadeOut,omitempty"`
	HighPass            int     `json:"highPass,omitempty"`
	LowPass             int     `json:"lowPass,omitempty"`
	CompressThresholdDB float64 `json:"compressThresholdDb,omitempty"`
	CompressRatio       float64 `json:"compressRatio,omitempty"`
	Normalize           bool    `json:"normalize"`
}

// NewDefaultQuality returns the speech band-pass and light compression settings.
func NewDefaultQuality() Quality {
	return Quality{
		BitDepth:            DefaultBitDepth,
		Volume:              DefaultVolume,
		HighPass:            DefaultHighPass,
		LowPass:             DefaultLowPass,
		CompressThresholdDB: DefaultCompressThresholdDB,
		CompressRatio:       DefaultCompressRatio,
		Normalize:           false,
	}
}

// Validate checks if quality settings are within reasonable bounds.
func (q *Quality) Validate() error {
	bitDepthErr := validateBitDepth(q.BitDepth)
	if bitDepthErr != nil {
		return bitDepthErr
	}

	effectParamsErr := q.validateEffectParams()
	if effectParamsErr != nil {
		return effectParamsErr
	}

	return nil
}

// Process applies the enabled effects to a copy of wave: high-pass, low-pass,
// compression, volume, peak normalization and fades, in that order. Filters at or
// above the Nyquist frequency of the waveform are skipped.
func (q *Quality) Process(wave Waveform) (Waveform, error) {
	validateErr := q.Validate()
	if validateErr != nil {
		return Waveform{}, validateErr
	}

	waveErr := wave.Validate()
	if waveErr != nil {
		return Waveform{}, waveErr
	}

	samples := make([]float64, len(wave.Samples))
	copy(samples, wave.Samples)

	nyquist := wave.SampleRate / 2

	if q.HighPass > 0 && q.HighPass < nyquist {
		newHighPass(float64(q.HighPass), float64(wave.SampleRate)).apply(samples)
	}

	if q.LowPass > 0 && q.LowPass < nyquist {
		newLowPass(float64(q.LowPass), float64(wave.SampleRate)).apply(samples)
	}

	if q.CompressRatio > 1 {
		compress(samples, q.CompressThresholdDB, q.CompressRatio)
	}

	if q.Volume != 1.0 {
		scale(samples, q.Volume)
	}

	if q.Normalize {
		normalize(samples)
	}

	if q.FadeIn > 0 {
		fadeIn(samples, int(q.FadeIn*float64(wave.SampleRate)))
	}

	if q.FadeOut > 0 {
		fadeOut(samples, int(q.FadeOut*float64(wave.SampleRate)))
	}

	return Waveform{Samples: samples, SampleRate: wave.SampleRate}, nil
}

// validateEffectParams checks audio effect settings.
func (q *Quality) validateEffectParams() error {
	volumeErr := validateVolume(q.Volume)
	if volumeErr != nil {
		return volumeErr
	}

	fadeInErr := validateFadeIn(q.FadeIn)
	if fadeInErr != nil {
		return fadeInErr
	}

	fadeOutErr := validateFadeOut(q.FadeOut)
	if fadeOutErr != nil {
		return fadeOutErr
	}

	bandErr := validateBand(q.HighPass, q.LowPass)
	if bandErr != nil {
		return bandErr
	}

	compressErr := validateCompression(q.CompressThresholdDB, q.CompressRatio)
	if compressErr != nil {
		return compressErr
	}

	return nil
}

//
// Validation Helpers
//

func validateBitDepth(bitDepth int) error {
	switch bitDepth {
	case BitDepth16, BitDepth24, BitDepth32:
		return nil
	default:
		return fmt.Errorf(errFmtBitDepthValues, ErrInvalidQuality, bitDepth)
	}
}

func validateVolume(volume float64) error {
	if volume < 0.0 || volume > MaxVolume {
		return fmt.Errorf(errFmtVolumeRange, ErrInvalidQuality, MaxVolume)
	}

	return nil
}

func validateFadeIn(fadeIn float64) error {
	if fadeIn < 0.0 {
		return fmt.Errorf(errFmtFadeInNonNegative, ErrInvalidQuality)
	}

	return nil
}

func validateFadeOut(fadeOut float64) error {
	if fadeOut < 0.0 {
		return fmt.Errorf(errFmtFadeOutNonNegative, ErrInvalidQuality)
	}

	return nil
}

func validateBand(highPass, lowPass int) error {
	if highPass < 0 || highPass > MaxFilterFrequency {
		return fmt.Errorf(errFmtHighPassRange, ErrInvalidQuality, MaxFilterFrequency)
	}

	if lowPass < 0 || lowPass > MaxFilterFrequency {
		return fmt.Errorf(errFmtLowPassRange, ErrInvalidQuality, MaxFilterFrequency)
	}

	if highPass > 0 && lowPass > 0 && highPass >= lowPass {
		return fmt.Errorf(errFmtBandOrder, ErrInvalidQuality, highPass, lowPass)
	}

	return nil
}

func validateCompression(thresholdDB, ratio float64) error {
	if thresholdDB > 0 {
		return fmt.Errorf(errFmtCompressThreshold, ErrInvalidQuality)
	}

	if ratio != 0 && ratio < 1 {
		return fmt.Errorf(errFmtCompressRatio, ErrInvalidQuality)
	}

	return nil
}

//
// Effects
//

// biquad is a second order IIR section in direct form I with normalized coefficients.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func newHighPass(cutoff, sampleRate float64) biquad {
	cosW, alpha := biquadTerms(cutoff, sampleRate)
	a0 := 1 + alpha

	return biquad{
		b0: (1 + cosW) / 2 / a0,
		b1: -(1 + cosW) / a0,
		b2: (1 + cosW) / 2 / a0,
		a1: -2 * cosW / a0,
		a2: (1 - alpha) / a0,
	}
}

func newLowPass(cutoff, sampleRate float64) biquad {
	cosW, alpha := biquadTerms(cutoff, sampleRate)
	a0 := 1 + alpha

	return biquad{
		b0: (1 - cosW) / 2 / a0,
		b1: (1 - cosW) / a0,
		b2: (1 - cosW) / 2 / a0,
		a1: -2 * cosW / a0,
		a2: (1 - alpha) / a0,
	}
}

func biquadTerms(cutoff, sampleRate float64) (float64, float64) {
	omega := 2 * math.Pi * cutoff / sampleRate

	return math.Cos(omega), math.Sin(omega) / (2 * butterworthQ)
}

func (f biquad) apply(samples []float64) {
	var x1, x2, y1, y2 float64

	for i, x := range samples {
		y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		samples[i] = y
	}
}

// compress reduces the part of every sample above the threshold by ratio.
func compress(samples []float64, thresholdDB, ratio float64) {
	threshold := math.Pow(10, thresholdDB/20)

	for i, sample := range samples {
		level := math.Abs(sample)
		if level <= threshold {
			continue
		}

		compressed := threshold * math.Pow(level/threshold, 1/ratio)
		samples[i] = math.Copysign(compressed, sample)
	}
}

func scale(samples []float64, gain float64) {
	for i := range samples {
		samples[i] *= gain
	}
}

func normalize(samples []float64) {
	peak := 0.0
	for _, sample := range samples {
		peak = math.Max(peak, math.Abs(sample))
	}

	if peak == 0 {
		return
	}

	scale(samples, normalizePeak/peak)
}

func fadeIn(samples []float64, length int) {
	length = min(length, len(samples))
	for i := range length {
		samples[i] *= float64(i) / float64(length)
	}
}

func fadeOut(samples []float64, length int) {
	length = min(length, len(samples))
	start := len(samples) - length

	for i := range length {
		samples[start+i] *= float64(length-i-1) / float64(length)
	}
}
