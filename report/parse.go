// Package report reads and writes the markdown comparison reports that
// summarise a quality comparison as a table.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingFile reports a report directory that does not exist.
var ErrMissingFile = errors.New("report: missing file")

// ChannelRow is one per-channel table row.
type ChannelRow struct {
	Channel     int     `json:"channel"`
	MSE         float64 `json:"mse"`
	MaxAbsError float64 `json:"max_abs_error"`
	SNRDB       float64 `json:"snr_db"`
}

// Row holds the bolded average row.
type Row struct {
	MSE         float64 `json:"mse"`
	MaxAbsError float64 `json:"max_abs_error"`
	SNRDB       float64 `json:"snr_db"`
}

// Record is the table extracted from one report.
type Record struct {
	Label    string       `json:"label"`
	Channels []ChannelRow `json:"channels"`
	Average  Row          `json:"average"`
}

type parseState int

const (
	seekingChannelRow parseState = iota
	seekingAverageRow
	done
)

// Parse scans text line by line for channel rows followed by the average
// row. Lines that match neither row grammar are ignored. ok is false when
// no average row was found. The returned Record has no label.
func Parse(text string) (rec Record, ok bool) {
	state := seekingChannelRow
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() && state != done {
		cells, isRow := tableCells(sc.Text())
		if !isRow {
			continue
		}
		if row, ok := parseChannelRow(cells); ok {
			rec.Channels = append(rec.Channels, row)
			state = seekingAverageRow
			continue
		}
		if avg, ok := parseAverageRow(cells); ok {
			rec.Average = avg
			state = done
		}
	}
	return rec, state == done
}

// tableCells splits a markdown table line "| a | b |" into trimmed cells.
func tableCells(line string) ([]string, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 2 || line[0] != '|' || line[len(line)-1] != '|' {
		return nil, false
	}
	parts := strings.Split(line[1:len(line)-1], "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

func parseChannelRow(cells []string) (ChannelRow, bool) {
	if len(cells) != 4 {
		return ChannelRow{}, false
	}
	rest, found := strings.CutPrefix(cells[0], "Channel ")
	if !found {
		return ChannelRow{}, false
	}
	ch, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || ch < 0 {
		return ChannelRow{}, false
	}
	vals, ok := parseNumbers(cells[1:], false)
	if !ok {
		return ChannelRow{}, false
	}
	return ChannelRow{Channel: ch, MSE: vals[0], MaxAbsError: vals[1], SNRDB: vals[2]}, true
}

func parseAverageRow(cells []string) (Row, bool) {
	if len(cells) != 4 || cells[0] != "**Average**" {
		return Row{}, false
	}
	vals, ok := parseNumbers(cells[1:], true)
	if !ok {
		return Row{}, false
	}
	return Row{MSE: vals[0], MaxAbsError: vals[1], SNRDB: vals[2]}, true
}

func parseNumbers(cells []string, bold bool) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, c := range cells {
		if bold {
			inner, ok := unbold(c)
			if !ok {
				return nil, false
			}
			c = inner
		}
		v, ok := ParseNumber(c)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func unbold(s string) (string, bool) {
	if len(s) < 4 || !strings.HasPrefix(s, "**") || !strings.HasSuffix(s, "**") {
		return "", false
	}
	return s[2 : len(s)-2], true
}

// ParseNumber accepts an optionally signed decimal ("41.28", "-3", ".5"),
// or an infinity written as "∞", "inf" or "Inf" with an optional sign.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	sign := 1.0
	body := s
	if body != "" && (body[0] == '+' || body[0] == '-') {
		if body[0] == '-' {
			sign = -1
		}
		body = body[1:]
	}
	switch body {
	case "∞", "inf", "Inf":
		return math.Inf(int(sign)), true
	case "":
		return 0, false
	}
	digits, dot := 0, false
	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && !dot:
			dot = true
		default:
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

const (
	namePrefix = "comparison_sample_"
	nameSuffix = "_report"
)

// LabelFromName extracts <label> from a file name of the form
// comparison_sample_<label>_report[.md]. The label is one or more of
// [A-Za-z0-9_].
func LabelFromName(name string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(name), ".md")
	rest, ok := strings.CutPrefix(base, namePrefix)
	if !ok {
		return "", false
	}
	label, ok := strings.CutSuffix(rest, nameSuffix)
	if !ok || label == "" {
		return "", false
	}
	for _, r := range label {
		if !isWordChar(r) {
			return "", false
		}
	}
	return label, true
}

func isWordChar(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ParseReports parses report texts keyed by file name. Names without a
// label and reports without an average row are skipped.
func ParseReports(texts map[string]string) map[string]Record {
	out := make(map[string]Record)
	names := make([]string, 0, len(texts))
	for name := range texts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		label, ok := LabelFromName(name)
		if !ok {
			continue
		}
		rec, ok := Parse(texts[name])
		if !ok {
			continue
		}
		rec.Label = label
		out[label] = rec
	}
	return out
}

// ParseDir reads every comparison_*_report.md file in dir.
func ParseDir(dir string) (map[string]Record, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("report dir %s is not a directory", dir)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "comparison_*_report.md"))
	if err != nil {
		return nil, err
	}
	texts := make(map[string]string, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		texts[filepath.Base(p)] = string(b)
	}
	return ParseReports(texts), nil
}
