// Package plan loads batch analysis plans from JSON.
package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cwbudde/algo-wavqa/internal/common"
	"github.com/cwbudde/algo-wavqa/pcm"
	"github.com/cwbudde/algo-wavqa/quantize"
)

// Plan is a resolved batch run: which files to load and which analyses to
// run on them.
type Plan struct {
	Reference   string
	Layout      pcm.Layout
	BitDepths   []int
	Derivations []pcm.Derivation
	BinWidth    int
	WindowSize  int
	Workers     int // 0 means one per CPU
	Variants    map[string]string
	ReportDir   string
}

// File is the JSON schema for plans. Absent fields keep their defaults.
type File struct {
	Reference   string            `json:"reference"`
	Channels    *int              `json:"channels"`
	SampleRate  *int              `json:"sample_rate"`
	BitDepths   []int             `json:"bit_depths"`
	Derivations []string          `json:"derivations"`
	BinWidth    *int              `json:"bin_width"`
	WindowSize  *int              `json:"window_size"`
	Workers     *json.RawMessage  `json:"workers"`
	Variants    map[string]string `json:"variants"`
	ReportDir   string            `json:"report_dir"`
}

// NewDefault returns the plan used when a file sets nothing: 8, 4, 2 and
// 1 bit sweeps of a 44.1 kHz stereo reference, all channel views, 2048
// sample spectrogram windows.
func NewDefault() *Plan {
	return &Plan{
		Layout:      pcm.DefaultLayout,
		BitDepths:   []int{8, 4, 2, 1},
		Derivations: append([]pcm.Derivation(nil), pcm.Derivations...),
		BinWidth:    1,
		WindowSize:  2048,
		Variants:    map[string]string{},
	}
}

// LoadJSON loads a plan file and applies it on top of NewDefault. Relative
// paths are resolved against the plan file's directory.
func LoadJSON(path string) (*Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	p := NewDefault()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Reference == "" {
		return nil, fmt.Errorf("%s: reference is required", path)
	}

	base := filepath.Dir(path)
	p.Reference = resolve(base, p.Reference)
	for name, v := range p.Variants {
		p.Variants[name] = resolve(base, v)
	}
	if p.ReportDir != "" {
		p.ReportDir = resolve(base, p.ReportDir)
	}
	return p, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// ApplyFile applies a parsed plan file onto dst.
func ApplyFile(dst *Plan, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination plan")
	}
	if f == nil {
		return nil
	}

	if s := strings.TrimSpace(f.Reference); s != "" {
		dst.Reference = s
	}
	if f.Channels != nil {
		if *f.Channels < 1 {
			return fmt.Errorf("channels must be >= 1")
		}
		dst.Layout.Channels = *f.Channels
	}
	if f.SampleRate != nil {
		if *f.SampleRate <= 0 {
			return fmt.Errorf("sample_rate must be > 0")
		}
		dst.Layout.SampleRate = *f.SampleRate
	}
	if f.BitDepths != nil {
		for _, b := range f.BitDepths {
			if _, err := quantize.NewProfile(b); err != nil {
				return fmt.Errorf("bit_depths: %w", err)
			}
		}
		dst.BitDepths = append([]int(nil), f.BitDepths...)
	}
	if f.Derivations != nil {
		ds := make([]pcm.Derivation, 0, len(f.Derivations))
		for _, name := range f.Derivations {
			d, err := pcm.ParseDerivation(strings.ToLower(strings.TrimSpace(name)))
			if err != nil {
				return fmt.Errorf("derivations: %w", err)
			}
			ds = append(ds, d)
		}
		dst.Derivations = ds
	}
	if f.BinWidth != nil {
		if *f.BinWidth < 1 {
			return fmt.Errorf("bin_width must be >= 1")
		}
		dst.BinWidth = *f.BinWidth
	}
	if f.WindowSize != nil {
		if *f.WindowSize < 1 {
			return fmt.Errorf("window_size must be >= 1")
		}
		dst.WindowSize = *f.WindowSize
	}
	if f.Workers != nil {
		n, err := parseWorkers(*f.Workers)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		dst.Workers = n
	}
	for name, path := range f.Variants {
		name = strings.TrimSpace(name)
		if name == "" || name == "reference" {
			return fmt.Errorf("variants: invalid name %q", name)
		}
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("variants: %q has no path", name)
		}
		if dst.Variants == nil {
			dst.Variants = map[string]string{}
		}
		dst.Variants[name] = strings.TrimSpace(path)
	}
	if s := strings.TrimSpace(f.ReportDir); s != "" {
		dst.ReportDir = s
	}
	return nil
}

// parseWorkers accepts either a JSON number or a string such as "auto".
func parseWorkers(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return common.ParseWorkers(fmt.Sprint(n))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%s (use integer >= 1 or 'auto')", raw)
	}
	return common.ParseWorkers(s)
}

// VariantNames returns the variant names in sorted order.
func (p *Plan) VariantNames() []string {
	out := make([]string, 0, len(p.Variants))
	for name := range p.Variants {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
