// Package audiofile decodes sample payloads into PCM and writes rendered
// audio back to disk.
package audiofile

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/jfreymuth/oggvorbis"
)

var (
	// ErrUnsupportedFormat is returned for payloads whose extension has no decoder.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrDecode wraps any failure while decoding a supported format.
	ErrDecode = errors.New("cannot decode audio")
)

// PCM is decoded audio, one slice per channel.
type PCM struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the number of sample frames.
func (p *PCM) Frames() int {
	if p == nil || len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

// Decode picks a decoder from the extension of name (".wav" or ".ogg").
func Decode(name string, data []byte) (*PCM, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".wav", ".wave":
		return decodeWAV(data)
	case ".ogg", ".oga":
		return decodeOGG(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

func decodeOGG(data []byte) (*PCM, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if format == nil || format.Channels < 1 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid ogg stream format", ErrDecode)
	}
	return deinterleave(samples, format.Channels, format.SampleRate), nil
}

func deinterleave(data []float32, numCh int, sampleRate int) *PCM {
	frames := len(data) / numCh
	out := &PCM{SampleRate: sampleRate, Channels: make([][]float32, numCh)}
	for c := range out.Channels {
		out.Channels[c] = make([]float32, frames)
	}
	for i := range frames {
		for c := 0; c < numCh; c++ {
			out.Channels[c][i] = data[i*numCh+c]
		}
	}
	return out
}

// Resample converts every channel of p to toRate. p is returned unchanged
// when the rates already match.
func Resample(p *PCM, toRate int) (*PCM, error) {
	if p == nil || toRate <= 0 || p.SampleRate == toRate {
		return p, nil
	}
	out := &PCM{SampleRate: toRate, Channels: make([][]float32, len(p.Channels))}
	for c, ch := range p.Channels {
		r, err := dspresample.NewForRates(
			float64(p.SampleRate),
			float64(toRate),
			dspresample.WithQuality(dspresample.QualityBest),
		)
		if err != nil {
			return nil, err
		}
		in64 := make([]float64, len(ch))
		for i, v := range ch {
			in64[i] = float64(v)
		}
		out64 := r.Process(in64)
		res := make([]float32, len(out64))
		for i, v := range out64 {
			res[i] = float32(v)
		}
		out.Channels[c] = res
	}
	return out, nil
}
