package ankoku

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigFileNames are searched for, in order, by FindConfig.
var ConfigFileNames = []string{"ankoku.toml", "ankoku.yaml", "ankoku.yml"}

type Config struct {
	VM    VMConfig    `toml:"vm" yaml:"vm"`
	GC    GCConfig    `toml:"gc" yaml:"gc"`
	Debug DebugConfig `toml:"debug" yaml:"debug"`
}

type VMConfig struct {
	// StackMax is the number of value slots on the VM stack.
	StackMax int `toml:"stack_max" yaml:"stack_max"`
	// MaxFrames bounds call depth; exceeding it is a stack overflow.
	MaxFrames int `toml:"max_frames" yaml:"max_frames"`
}

type GCConfig struct {
	GrowFactor float64 `toml:"grow_factor" yaml:"grow_factor"`
	MinHeap    int     `toml:"min_heap" yaml:"min_heap"`
	// Stress collects before every allocation.
	Stress bool `toml:"stress" yaml:"stress"`
}

type DebugConfig struct {
	PrintCode      bool `toml:"print_code" yaml:"print_code"`
	TraceExecution bool `toml:"trace_execution" yaml:"trace_execution"`
}

const (
	DefaultMaxFrames    = 64
	DefaultStackMax     = DefaultMaxFrames * 256
	DefaultGCGrowFactor = 2.0
	DefaultGCMinHeap    = 1024 * 1024
)

func DefaultConfig() Config {
	return Config{
		VM: VMConfig{
			StackMax:  DefaultStackMax,
			MaxFrames: DefaultMaxFrames,
		},
		GC: GCConfig{
			GrowFactor: DefaultGCGrowFactor,
			MinHeap:    DefaultGCMinHeap,
		},
	}
}

func (c *Config) setDefaults() {
	if c.VM.StackMax == 0 {
		c.VM.StackMax = DefaultStackMax
	}
	if c.VM.MaxFrames == 0 {
		c.VM.MaxFrames = DefaultMaxFrames
	}
	if c.GC.GrowFactor == 0 {
		c.GC.GrowFactor = DefaultGCGrowFactor
	}
	if c.GC.MinHeap == 0 {
		c.GC.MinHeap = DefaultGCMinHeap
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.VM.StackMax < 256:
		return fmt.Errorf("vm.stack_max must be at least 256, got %d", c.VM.StackMax)
	case c.VM.MaxFrames < 1:
		return fmt.Errorf("vm.max_frames must be positive, got %d", c.VM.MaxFrames)
	case c.GC.GrowFactor <= 1:
		return fmt.Errorf("gc.grow_factor must be greater than 1, got %g", c.GC.GrowFactor)
	case c.GC.MinHeap < 0:
		return fmt.Errorf("gc.min_heap must not be negative, got %d", c.GC.MinHeap)
	}
	return nil
}

// LoadConfig reads a TOML or YAML file, chosen by extension. Unset fields
// take their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(bytes.NewReader(data), filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a configuration document. format is a file extension
// such as ".toml" or ".yaml".
func ParseConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "toml":
		md, err := toml.NewDecoder(r).Decode(&cfg)
		if err != nil {
			return Config{}, fmt.Errorf("parsing toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return Config{}, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FindConfig walks from dir towards the filesystem root and returns the
// first config file found, or "" if there is none.
func FindConfig(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Option configures a VM at construction.
type Option func(*VM)

func WithConfig(cfg Config) Option {
	return func(vm *VM) {
		cfg.setDefaults()
		vm.config = cfg
	}
}

func WithStdout(w io.Writer) Option {
	return func(vm *VM) { vm.Stdout = w }
}

// WithTraceOutput sets where execution traces and disassembly go when the
// debug settings enable them.
func WithTraceOutput(w io.Writer) Option {
	return func(vm *VM) { vm.TraceOut = w }
}

func WithStressGC(stress bool) Option {
	return func(vm *VM) { vm.config.GC.Stress = stress }
}

func WithMaxFrames(n int) Option {
	return func(vm *VM) { vm.config.VM.MaxFrames = n }
}
