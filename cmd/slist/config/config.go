// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the configuration shared by the slist subcommands.
//
// Values come from command line flags. A TOML file may supply defaults for
// any flag not given on the command line.
package config

import (
	"flag"
	"fmt"
	"reflect"
	"time"

	"github.com/BurntSushi/toml"
	"gvisor.dev/intrusive/pkg/refs"
)

// Config holds the configuration for the slist tool. Fields tagged with
// `flag` are populated from the flag of that name.
type Config struct {
	// LogFormat is the format of log output: text or json.
	LogFormat string `flag:"log-format"`

	// Debug enables debug logging.
	Debug bool `flag:"debug"`

	// ReferenceLeak is the reference leak checking mode applied to
	// reference counted list elements.
	ReferenceLeak refs.LeakMode `flag:"ref-leak-mode"`

	// Elements is the number of elements each bench worker links per round.
	Elements int `flag:"elements"`

	// Goroutines is the number of concurrent bench workers.
	Goroutines int `flag:"goroutines"`

	// Rounds is the number of rounds each bench worker runs.
	Rounds int `flag:"rounds"`

	// ProgressInterval bounds how often progress is logged. Zero disables
	// progress logging.
	ProgressInterval time.Duration `flag:"progress-interval"`

	// Ops is the number of random operations run by verify.
	Ops int `flag:"ops"`

	// Seed seeds the random operations run by verify.
	Seed uint64 `flag:"seed"`
}

func leakModePtr(v refs.LeakMode) *refs.LeakMode {
	return &v
}

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	// Logging flags.
	flagSet.String("log-format", "text", "log format: text (default) or json.")
	flagSet.Bool("debug", false, "enable debug logging.")
	flagSet.Var(leakModePtr(refs.NoLeakChecking), "ref-leak-mode", "sets reference leak check mode: disabled (default), log-names, log-traces, panic.")

	// Workload flags.
	flagSet.Int("elements", 1024, "number of elements linked by each bench worker per round.")
	flagSet.Int("goroutines", 4, "number of concurrent bench workers.")
	flagSet.Int("rounds", 100, "number of rounds run by each bench worker.")
	flagSet.Duration("progress-interval", time.Second, "minimum time between progress messages; 0 disables them.")
	flagSet.Int("ops", 10000, "number of random operations run by verify.")
	flagSet.Uint64("seed", 1, "seed for the random operations run by verify.")
}

// NewFromFlags creates a new Config with values coming from command line flags.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	conf := &Config{}

	obj := reflect.ValueOf(conf).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			continue
		}
		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		getter, ok := fl.Value.(flag.Getter)
		if !ok {
			panic(fmt.Sprintf("Flag %q does not implement flag.Getter", name))
		}
		obj.Field(i).Set(reflect.ValueOf(getter.Get()))
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// LoadFile applies the flag values in the TOML file at path to flagSet. Keys
// are flag names. Flags already set on the command line are left alone.
//
// For example:
//
//	debug = true
//	ref-leak-mode = "log-names"
//	goroutines = 8
//	progress-interval = "500ms"
func LoadFile(flagSet *flag.FlagSet, path string) error {
	var values map[string]any
	if _, err := toml.DecodeFile(path, &values); err != nil {
		return fmt.Errorf("error reading config file %q: %w", path, err)
	}
	return apply(flagSet, values)
}

// Decode is like LoadFile, but reads the TOML document from data.
func Decode(flagSet *flag.FlagSet, data string) error {
	var values map[string]any
	if _, err := toml.Decode(data, &values); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	return apply(flagSet, values)
}

func apply(flagSet *flag.FlagSet, values map[string]any) error {
	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	for name, v := range values {
		fl := flagSet.Lookup(name)
		if fl == nil {
			return fmt.Errorf("unknown flag %q in config", name)
		}
		if set[name] {
			continue
		}
		switch v.(type) {
		case string, bool, int64, float64:
		default:
			return fmt.Errorf("flag %q: unsupported value %v of type %T", name, v, v)
		}
		if err := flagSet.Set(name, fmt.Sprint(v)); err != nil {
			return fmt.Errorf("error setting flag %s=%v: %w", name, v, err)
		}
	}
	return nil
}

// validate checks that the configuration is consistent.
func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be text or json", c.LogFormat)
	}
	if c.Elements < 0 {
		return fmt.Errorf("elements must be non-negative, got %d", c.Elements)
	}
	if c.Goroutines <= 0 {
		return fmt.Errorf("goroutines must be positive, got %d", c.Goroutines)
	}
	if c.Rounds < 0 {
		return fmt.Errorf("rounds must be non-negative, got %d", c.Rounds)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress-interval must be non-negative, got %v", c.ProgressInterval)
	}
	if c.Ops < 0 {
		return fmt.Errorf("ops must be non-negative, got %d", c.Ops)
	}
	return nil
}
