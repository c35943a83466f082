// Package config assembles the run configuration from defaults, a named
// preset, an optional TOML file and command line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/marben/julia"
	"github.com/marben/julia/internal/output"
	"github.com/pelletier/go-toml/v2"
)

// Config is the complete configuration of a render run.
type Config struct {
	Params julia.Params

	OutputPath string
	Output     output.Options
	Filters    output.Filters
	ThumbSize  int // 0 disables the thumbnail

	Addr    string // listen address of the preview server
	RPCAddr string // irpc listen address of the preview server
	Remote  string // irpc address to fetch the finished image from instead of rendering
}

func defaults() *Config {
	return &Config{
		Params:     julia.DefaultParams(),
		OutputPath: "julia.jpg",
		Addr:       ":8080",
		RPCAddr:    ":8081",
	}
}

// file mirrors the TOML config file. Pointers tell unset keys apart.
type file struct {
	Preset   string      `toml:"preset"`
	C        *[2]float64 `toml:"c"`
	X        *[2]float64 `toml:"x"`
	Y        *[2]float64 `toml:"y"`
	Size     *int        `toml:"size"`
	Iter     *int        `toml:"iter"`
	Radius   *float64    `toml:"radius"`
	Bright   *float64    `toml:"bright"`
	Sampling string      `toml:"sampling"`
	Overflow string      `toml:"overflow"`
	Mode     string      `toml:"mode"`
	Output   string      `toml:"output"`
	Quality  *int        `toml:"quality"`
	Gamma    *float64    `toml:"gamma"`
	Invert   *bool       `toml:"invert"`
	Thumb    *int        `toml:"thumb"`
	Addr     string      `toml:"addr"`
	RPC      string      `toml:"rpc"`
	Remote   string      `toml:"remote"`
}

// flags holds raw flag values; only flags the user set are applied.
type flags struct {
	config   string
	preset   string
	c        string
	x        string
	y        string
	size     int
	iter     int
	radius   float64
	bright   float64
	sampling string
	overflow string
	mode     string
	output   string
	quality  int
	gamma    float64
	invert   bool
	thumb    int
	addr     string
	rpc      string
	remote   string
}

func newFlagSet(name string, d *Config, f *flags) *flag.FlagSet {
	p := d.Params
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "TOML file with render settings")
	fs.StringVar(&f.preset, "preset", "", "named Julia parameter: "+strings.Join(julia.PresetNames(), ", "))
	fs.StringVar(&f.c, "c", formatPair(real(p.C), imag(p.C)), "Julia parameter as re,im")
	fs.StringVar(&f.x, "x", formatPair(p.Region.X.Min, p.Region.X.Max), "real axis bounds as min,max")
	fs.StringVar(&f.y, "y", formatPair(p.Region.Y.Min, p.Region.Y.Max), "imaginary axis bounds as min,max")
	fs.IntVar(&f.size, "size", p.GridSize, "side of the square image in pixels")
	fs.IntVar(&f.iter, "iter", p.MaxIter, "iteration cap")
	fs.Float64Var(&f.radius, "radius", p.Radius, "escape radius")
	fs.Float64Var(&f.bright, "bright", p.Brightening, "brightening factor applied to iteration counts")
	fs.StringVar(&f.sampling, "sampling", p.Sampling.String(), "pixel sampling: halfopen or inclusive")
	fs.StringVar(&f.overflow, "overflow", p.Overflow.String(), "grey level overflow: saturate or wrap")
	fs.StringVar(&f.mode, "mode", p.Mode.String(), "colouring: escape or mask")
	fs.StringVar(&f.output, "o", d.OutputPath, "output file; the extension picks the format")
	fs.IntVar(&f.quality, "quality", 0, "JPEG quality 1-100, 0 for the encoder default")
	fs.Float64Var(&f.gamma, "gamma", 0, "gamma correction applied before saving, 0 to skip")
	fs.BoolVar(&f.invert, "invert", false, "invert grey levels before saving")
	fs.IntVar(&f.thumb, "thumb", 0, "also write a thumbnail with this longest side, 0 to skip")
	fs.StringVar(&f.addr, "addr", d.Addr, "preview server listen address")
	fs.StringVar(&f.rpc, "rpc", d.RPCAddr, "preview server irpc listen address")
	fs.StringVar(&f.remote, "remote", "", "fetch the finished image from the irpc server at this address instead of rendering")
	return fs
}

// Load parses args (without the program name) into a validated Config.
// Diagnostics for bad flags go to stderr.
func Load(name string, args []string) (*Config, error) {
	return load(name, args, os.Stderr)
}

func load(name string, args []string, stderr io.Writer) (*Config, error) {
	cfg := defaults()

	var f flags
	fs := newFlagSet(name, cfg, &f)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %q", fs.Args())
	}

	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	var fc file
	if f.config != "" {
		if err := readFile(f.config, &fc); err != nil {
			return nil, err
		}
	}

	presetName := fc.Preset
	if set["preset"] {
		presetName = f.preset
	}
	if presetName != "" {
		pr, ok := julia.Presets[presetName]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q, have: %s", presetName, strings.Join(julia.PresetNames(), ", "))
		}
		cfg.Params.ApplyPreset(pr)
	}

	if err := cfg.applyFile(&fc); err != nil {
		return nil, fmt.Errorf("config file %s: %w", f.config, err)
	}
	if err := cfg.applyFlags(&f, set); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string, fc *file) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer fh.Close()

	if err := toml.NewDecoder(fh).DisallowUnknownFields().Decode(fc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("config file %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyFile(fc *file) error {
	p := &cfg.Params
	if fc.C != nil {
		p.C = complex(fc.C[0], fc.C[1])
	}
	if fc.X != nil {
		p.Region.X = julia.Interval{Min: fc.X[0], Max: fc.X[1]}
	}
	if fc.Y != nil {
		p.Region.Y = julia.Interval{Min: fc.Y[0], Max: fc.Y[1]}
	}
	if fc.Size != nil {
		p.GridSize = *fc.Size
	}
	if fc.Iter != nil {
		p.MaxIter = *fc.Iter
	}
	if fc.Radius != nil {
		p.Radius = *fc.Radius
	}
	if fc.Bright != nil {
		p.Brightening = *fc.Bright
	}
	if err := cfg.applyEnums(fc.Sampling, fc.Overflow, fc.Mode); err != nil {
		return err
	}
	if fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if fc.Quality != nil {
		cfg.Output.JPEGQuality = *fc.Quality
	}
	if fc.Gamma != nil {
		cfg.Filters.Gamma = *fc.Gamma
	}
	if fc.Invert != nil {
		cfg.Filters.Invert = *fc.Invert
	}
	if fc.Thumb != nil {
		cfg.ThumbSize = *fc.Thumb
	}
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.RPC != "" {
		cfg.RPCAddr = fc.RPC
	}
	if fc.Remote != "" {
		cfg.Remote = fc.Remote
	}
	return nil
}

func (cfg *Config) applyFlags(f *flags, set map[string]bool) error {
	p := &cfg.Params
	if set["c"] {
		re, im, err := parsePair(f.c)
		if err != nil {
			return fmt.Errorf("-c: %w", err)
		}
		p.C = complex(re, im)
	}
	if set["x"] {
		lo, hi, err := parsePair(f.x)
		if err != nil {
			return fmt.Errorf("-x: %w", err)
		}
		p.Region.X = julia.Interval{Min: lo, Max: hi}
	}
	if set["y"] {
		lo, hi, err := parsePair(f.y)
		if err != nil {
			return fmt.Errorf("-y: %w", err)
		}
		p.Region.Y = julia.Interval{Min: lo, Max: hi}
	}
	if set["size"] {
		p.GridSize = f.size
	}
	if set["iter"] {
		p.MaxIter = f.iter
	}
	if set["radius"] {
		p.Radius = f.radius
	}
	if set["bright"] {
		p.Brightening = f.bright
	}

	var sampling, overflow, mode string
	if set["sampling"] {
		sampling = f.sampling
	}
	if set["overflow"] {
		overflow = f.overflow
	}
	if set["mode"] {
		mode = f.mode
	}
	if err := cfg.applyEnums(sampling, overflow, mode); err != nil {
		return err
	}

	if set["o"] {
		cfg.OutputPath = f.output
	}
	if set["quality"] {
		cfg.Output.JPEGQuality = f.quality
	}
	if set["gamma"] {
		cfg.Filters.Gamma = f.gamma
	}
	if set["invert"] {
		cfg.Filters.Invert = f.invert
	}
	if set["thumb"] {
		cfg.ThumbSize = f.thumb
	}
	if set["addr"] {
		cfg.Addr = f.addr
	}
	if set["rpc"] {
		cfg.RPCAddr = f.rpc
	}
	if set["remote"] {
		cfg.Remote = f.remote
	}
	return nil
}

// applyEnums parses the non-empty names into Params.
func (cfg *Config) applyEnums(sampling, overflow, mode string) error {
	var err error
	if sampling != "" {
		if cfg.Params.Sampling, err = julia.ParseSampling(sampling); err != nil {
			return err
		}
	}
	if overflow != "" {
		if cfg.Params.Overflow, err = julia.ParseOverflow(overflow); err != nil {
			return err
		}
	}
	if mode != "" {
		if cfg.Params.Mode, err = julia.ParseMode(mode); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the render parameters and the output settings.
func (cfg *Config) Validate() error {
	if err := cfg.Params.Validate(); err != nil {
		return err
	}
	if _, err := output.Format(cfg.OutputPath); err != nil {
		return err
	}
	if err := cfg.Output.Validate(); err != nil {
		return err
	}
	if cfg.Filters.Gamma < 0 {
		return fmt.Errorf("gamma must not be negative, got %g", cfg.Filters.Gamma)
	}
	if cfg.ThumbSize < 0 {
		return fmt.Errorf("thumbnail size must not be negative, got %d", cfg.ThumbSize)
	}
	return nil
}

func parsePair(s string) (float64, float64, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("want two comma separated numbers, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func formatPair(a, b float64) string {
	return strconv.FormatFloat(a, 'g', -1, 64) + "," + strconv.FormatFloat(b, 'g', -1, 64)
}
