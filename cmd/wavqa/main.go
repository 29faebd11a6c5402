package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/cwbudde/algo-wavqa/internal/common"
	"github.com/cwbudde/algo-wavqa/pcm"
	"github.com/cwbudde/algo-wavqa/session"
)

var version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	Channels   int    `default:"2" help:"Channel count assumed when a file has no readable header."`
	SampleRate int    `name:"sample-rate" default:"44100" help:"Sample rate assumed when a file has no readable header."`
	Workers    string `default:"auto" help:"Parallel workers (integer >= 1 or 'auto')."`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version information"`

	Hist     histCmd     `cmd:"" help:"Dump value histograms of each channel view."`
	Quantize quantizeCmd `cmd:"" help:"Requantize a file to lower bit depths and measure the damage."`
	Unpack   unpackCmd   `cmd:"" help:"Expand a bit-packed quantize output back to a 16-bit WAV file."`
	Compare  compareCmd  `cmd:"" help:"Compare a test file against a reference."`
	Spectrum spectrumCmd `cmd:"" help:"Profile a file and optionally rank effect variants against it."`
	Reports  reportsCmd  `cmd:"" help:"Collect the tables of every comparison report in a directory."`
	Run      runCmd      `cmd:"" help:"Execute a JSON run plan."`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("wavqa"),
		kong.Description("Audio quality and spectral analysis for 16-bit PCM WAV files"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	if err := ctx.Run(&cli.Globals); err != nil {
		die("%v", err)
	}
}

func (g *Globals) layout() pcm.Layout {
	return pcm.Layout{Channels: g.Channels, SampleRate: g.SampleRate}
}

func (g *Globals) newSession() (*session.Session, error) {
	workers, err := common.ParseWorkers(g.Workers)
	if err != nil {
		return nil, fmt.Errorf("invalid --workers value %s", err)
	}
	return session.New(session.WithLayout(g.layout()), session.WithWorkers(workers)), nil
}

func die(format string, args ...any) {
	printError(fmt.Sprintf(format, args...))
	os.Exit(1)
}

// stem is the base name of path without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func histogramFileName(stem string, view pcm.Derivation, binWidth int) string {
	return fmt.Sprintf("%s_%s_bin%d.txt", stem, view, binWidth)
}
