package preset

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/cwbudde/piano-sampler/internal/audiofile"
	"github.com/cwbudde/piano-sampler/note"
)

func TestConfigNewCacheReadsAssetDir(t *testing.T) {
	dir := t.TempDir()
	data := make([]float32, 4000)
	for i := 1000; i < len(data); i++ {
		data[i] = 0.5
	}
	if err := audiofile.WriteMonoWAV(filepath.Join(dir, "Piano.ff.A4.wav"), data, 8000); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	cfg := Default()
	cfg.Assets = dir
	cfg.SampleRate = 8000
	cfg.Layout.Extension = "wav"
	cache := cfg.NewCache(log.New(io.Discard, "", 0))

	s, err := cache.Load(context.Background(), note.MustParse("A4"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.SampleRate != 8000 || s.Frames() != len(data) {
		t.Fatalf("unexpected sample: rate=%d frames=%d", s.SampleRate, s.Frames())
	}
	// Strike at 0.125 s minus the default 20 ms lead-in.
	if s.Onset < 0.1 || s.Onset > 0.11 {
		t.Fatalf("onset mismatch: %f", s.Onset)
	}

	p := cfg.NewPiano(cache, nil, log.New(io.Discard, "", 0))
	defer p.Close()
	if p.SampleRate() != 8000 {
		t.Fatalf("engine rate mismatch")
	}
}
