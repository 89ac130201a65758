package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/piano-sampler/analysis"
	"github.com/cwbudde/piano-sampler/note"
	"github.com/cwbudde/piano-sampler/piano"
	"gopkg.in/yaml.v3"
)

// File is the JSON/YAML schema for piano presets.
type File struct {
	SampleRate     *int                   `json:"sample_rate" yaml:"sample_rate"`
	Assets         string                 `json:"assets" yaml:"assets"`
	Prefix         string                 `json:"prefix" yaml:"prefix"`
	Extension      string                 `json:"extension" yaml:"extension"`
	Dynamics       string                 `json:"dynamics" yaml:"dynamics"`
	BaseGain       *float32               `json:"base_gain" yaml:"base_gain"`
	OutputGain     *float32               `json:"output_gain" yaml:"output_gain"`
	AttackSeconds  *float32               `json:"attack_seconds" yaml:"attack_seconds"`
	ReleaseSeconds *float32               `json:"release_seconds" yaml:"release_seconds"`
	Onset          *OnsetSetting          `json:"onset" yaml:"onset"`
	Compressor     *CompressorSetting     `json:"compressor" yaml:"compressor"`
	Range          *RangeSetting          `json:"range" yaml:"range"`
	MIDIInput      string                 `json:"midi_input" yaml:"midi_input"`
	PerNote        map[string]NoteSetting `json:"per_note" yaml:"per_note"`
}

// OnsetSetting overrides the onset detector.
type OnsetSetting struct {
	Probes        *int     `json:"probes" yaml:"probes"`
	Threshold     *float32 `json:"threshold" yaml:"threshold"`
	LeadInSeconds *float64 `json:"lead_in_seconds" yaml:"lead_in_seconds"`
}

// CompressorSetting overrides the output compressor.
type CompressorSetting struct {
	Enabled        *bool    `json:"enabled" yaml:"enabled"`
	ThresholdDB    *float32 `json:"threshold_db" yaml:"threshold_db"`
	KneeDB         *float32 `json:"knee_db" yaml:"knee_db"`
	Ratio          *float32 `json:"ratio" yaml:"ratio"`
	AttackSeconds  *float32 `json:"attack_seconds" yaml:"attack_seconds"`
	ReleaseSeconds *float32 `json:"release_seconds" yaml:"release_seconds"`
	MakeupDB       *float32 `json:"makeup_db" yaml:"makeup_db"`
}

// RangeSetting limits the playable keys.
type RangeSetting struct {
	Low  string `json:"low" yaml:"low"`
	High string `json:"high" yaml:"high"`
}

// NoteSetting is a partial note override entry in a preset file.
type NoteSetting struct {
	Gain     *float32 `json:"gain" yaml:"gain"`
	Dynamics string   `json:"dynamics" yaml:"dynamics"`
}

// Load reads a preset file and applies it on top of Default. Files ending
// in .yml or .yaml are YAML; anything else is tried as JSON first and
// then as YAML.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(path, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg := Default()
	if err := ApplyFile(cfg, f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Assets != "" && !isURL(cfg.Assets) && !filepath.IsAbs(cfg.Assets) {
		base := filepath.Dir(path)
		cfg.Assets = filepath.Clean(filepath.Join(base, cfg.Assets))
	}
	return cfg, nil
}

// Parse decodes preset bytes; name selects the format by extension.
func Parse(name string, b []byte) (*File, error) {
	var f File
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return &f, nil
	}
	if errJSON := json.Unmarshal(b, &f); errJSON != nil {
		f = File{}
		if errYaml := yaml.Unmarshal(b, &f); errYaml != nil {
			return nil, fmt.Errorf("parse preset: json: %v, yaml: %v", errJSON, errYaml)
		}
	}
	return &f, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ApplyFile applies a parsed preset file onto an existing config.
func ApplyFile(dst *Config, f *File) error {
	if dst == nil || dst.Params == nil {
		return fmt.Errorf("nil destination config")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate < 8000 || *f.SampleRate > 192000 {
			return fmt.Errorf("sample_rate must be in [8000,192000]")
		}
		dst.SampleRate = *f.SampleRate
	}
	if s := strings.TrimSpace(f.Assets); s != "" {
		dst.Assets = s
	}
	if s := strings.TrimSpace(f.Prefix); s != "" {
		dst.Layout.Prefix = s
	}
	if s := strings.TrimSpace(f.Extension); s != "" {
		dst.Layout.Extension = strings.TrimPrefix(s, ".")
	}
	if s := strings.TrimSpace(f.Dynamics); s != "" {
		dst.Layout.Dynamics = s
	}
	if s := strings.TrimSpace(f.MIDIInput); s != "" {
		dst.MIDIInput = s
	}

	p := dst.Params
	if f.BaseGain != nil {
		if *f.BaseGain <= 0 {
			return fmt.Errorf("base_gain must be > 0")
		}
		p.BaseGain = *f.BaseGain
	}
	if f.OutputGain != nil {
		if *f.OutputGain <= 0 {
			return fmt.Errorf("output_gain must be > 0")
		}
		p.OutputGain = *f.OutputGain
	}
	if f.AttackSeconds != nil {
		if *f.AttackSeconds < 0 || *f.AttackSeconds > 1 {
			return fmt.Errorf("attack_seconds must be in [0,1]")
		}
		p.AttackSeconds = *f.AttackSeconds
	}
	if f.ReleaseSeconds != nil {
		if *f.ReleaseSeconds <= 0 || *f.ReleaseSeconds > 10 {
			return fmt.Errorf("release_seconds must be in (0,10]")
		}
		p.ReleaseSeconds = *f.ReleaseSeconds
	}
	if err := applyOnset(&dst.Onset, f.Onset); err != nil {
		return err
	}
	if err := applyCompressor(p, f.Compressor); err != nil {
		return err
	}
	if err := applyRange(&dst.Range, f.Range); err != nil {
		return err
	}
	return applyPerNote(dst, f.PerNote)
}

func applyOnset(dst *analysis.OnsetDetector, o *OnsetSetting) error {
	if o == nil {
		return nil
	}
	if o.Probes != nil {
		if *o.Probes <= 0 {
			return fmt.Errorf("onset.probes must be > 0")
		}
		dst.Probes = *o.Probes
	}
	if o.Threshold != nil {
		if *o.Threshold <= 0 || *o.Threshold >= 1 {
			return fmt.Errorf("onset.threshold must be in (0,1)")
		}
		dst.Threshold = *o.Threshold
	}
	if o.LeadInSeconds != nil {
		if *o.LeadInSeconds < 0 {
			return fmt.Errorf("onset.lead_in_seconds must be >= 0")
		}
		dst.LeadIn = *o.LeadInSeconds
	}
	return nil
}

func applyCompressor(p *piano.Params, c *CompressorSetting) error {
	if c == nil {
		return nil
	}
	dst := &p.Compressor
	if c.Enabled != nil {
		dst.Enabled = *c.Enabled
	}
	if c.ThresholdDB != nil {
		if *c.ThresholdDB > 0 || *c.ThresholdDB < -100 {
			return fmt.Errorf("compressor.threshold_db must be in [-100,0]")
		}
		dst.ThresholdDB = *c.ThresholdDB
	}
	if c.KneeDB != nil {
		if *c.KneeDB < 0 || *c.KneeDB > 40 {
			return fmt.Errorf("compressor.knee_db must be in [0,40]")
		}
		dst.KneeDB = *c.KneeDB
	}
	if c.Ratio != nil {
		if *c.Ratio < 1 || *c.Ratio > 20 {
			return fmt.Errorf("compressor.ratio must be in [1,20]")
		}
		dst.Ratio = *c.Ratio
	}
	if c.AttackSeconds != nil {
		if *c.AttackSeconds < 0 || *c.AttackSeconds > 1 {
			return fmt.Errorf("compressor.attack_seconds must be in [0,1]")
		}
		dst.AttackSeconds = *c.AttackSeconds
	}
	if c.ReleaseSeconds != nil {
		if *c.ReleaseSeconds < 0 || *c.ReleaseSeconds > 1 {
			return fmt.Errorf("compressor.release_seconds must be in [0,1]")
		}
		dst.ReleaseSeconds = *c.ReleaseSeconds
	}
	if c.MakeupDB != nil {
		dst.MakeupDB = *c.MakeupDB
	}
	return nil
}

func applyRange(dst *note.Range, r *RangeSetting) error {
	if r == nil {
		return nil
	}
	out := *dst
	if r.Low != "" {
		id, err := note.Parse(r.Low)
		if err != nil {
			return fmt.Errorf("range.low: %w", err)
		}
		out.Low = id
	}
	if r.High != "" {
		id, err := note.Parse(r.High)
		if err != nil {
			return fmt.Errorf("range.high: %w", err)
		}
		out.High = id
	}
	if !note.Piano88.Contains(out.Low) || !note.Piano88.Contains(out.High) || out.Low.MIDI() > out.High.MIDI() {
		return fmt.Errorf("range %s..%s must be an ascending span within A0..C8", out.Low, out.High)
	}
	*dst = out
	return nil
}

// parseNoteKey accepts note names ("C4", "F#3") and MIDI numbers ("60").
func parseNoteKey(k string) (note.ID, error) {
	if id, err := note.Parse(k); err == nil {
		return id, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(k))
	if err != nil || n < 21 || n > 108 {
		return note.ID{}, fmt.Errorf("invalid per_note key %q (expected a note name or 21..108)", k)
	}
	return note.FromMIDI(n), nil
}

func applyPerNote(dst *Config, perNote map[string]NoteSetting) error {
	if len(perNote) == 0 {
		return nil
	}
	if dst.Params.PerNote == nil {
		dst.Params.PerNote = make(map[note.ID]*piano.NoteParams)
	}

	keys := make([]string, 0, len(perNote))
	for k := range perNote {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		id, err := parseNoteKey(k)
		if err != nil {
			return err
		}
		override := perNote[k]
		if override.Gain != nil {
			if *override.Gain <= 0 {
				return fmt.Errorf("per_note[%s].gain must be > 0", id)
			}
			np, ok := dst.Params.PerNote[id]
			if !ok || np == nil {
				np = &piano.NoteParams{}
				dst.Params.PerNote[id] = np
			}
			np.Gain = *override.Gain
		}
		if d := strings.TrimSpace(override.Dynamics); d != "" {
			if dst.Layout.PerNote == nil {
				dst.Layout.PerNote = make(map[note.ID]string)
			}
			dst.Layout.PerNote[id] = d
		}
	}
	return nil
}
