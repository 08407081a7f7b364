// Package scenario replays scripted emitter sessions and records what
// happened, so registry behaviour can be checked from data files.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Operations understood by the runner.
const (
	OpOn          = "on"
	OpOnce        = "once"
	OpPrepend     = "prepend"
	OpPrependOnce = "prepend_once"
	OpOff         = "off"
	OpRemoveAll   = "remove_all"
	OpEmit        = "emit"
	OpSetMax      = "set_max"
	OpCount       = "count"
	OpNames       = "names"
)

// Format is a script encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for files that are neither YAML nor TOML.
var ErrUnknownFormat = errors.New("unknown script format")

// Script is one replayable session.
type Script struct {
	Name         string                  `yaml:"name" toml:"name"`
	MaxListeners *int                    `yaml:"max_listeners" toml:"max_listeners"`
	Match        string                  `yaml:"match" toml:"match"` // "last" (default) or "first"
	Listeners    map[string]ListenerSpec `yaml:"listeners" toml:"listeners"`
	Steps        []Step                  `yaml:"steps" toml:"steps"`
	Expect       []string                `yaml:"expect" toml:"expect"`
}

// ListenerSpec describes a named listener. Its steps run every time it is
// invoked, after the invocation is recorded.
type ListenerSpec struct {
	Steps []Step `yaml:"steps" toml:"steps"`
}

// Step is a single registry operation.
type Step struct {
	Op       string `yaml:"op" toml:"op"`
	Event    string `yaml:"event" toml:"event"`
	Listener string `yaml:"listener" toml:"listener"`
	Args     []any  `yaml:"args" toml:"args"`
	N        int    `yaml:"n" toml:"n"`
}

// Load reads a script, picking the decoder from the file extension.
func Load(path string) (*Script, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".toml":
		format = FormatTOML
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse decodes a script and validates its steps.
func Parse(data []byte, format Format) (*Script, error) {
	var s Script
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, err
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &s); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) validate() error {
	if err := validateSteps(s.Steps, s.Listeners, "steps"); err != nil {
		return err
	}
	for name, spec := range s.Listeners {
		if err := validateSteps(spec.Steps, s.Listeners, "listeners."+name); err != nil {
			return err
		}
	}
	return nil
}

func validateSteps(steps []Step, listeners map[string]ListenerSpec, where string) error {
	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", where, i)
		switch step.Op {
		case OpOn, OpOnce, OpPrepend, OpPrependOnce, OpOff:
			if step.Event == "" {
				return fmt.Errorf("%s: %s needs an event", at, step.Op)
			}
			if _, ok := listeners[step.Listener]; !ok {
				return fmt.Errorf("%s: unknown listener %q", at, step.Listener)
			}
		case OpEmit, OpCount:
			if step.Event == "" {
				return fmt.Errorf("%s: %s needs an event", at, step.Op)
			}
		case OpRemoveAll, OpNames, OpSetMax:
		default:
			return fmt.Errorf("%s: unknown op %q", at, step.Op)
		}
	}
	return nil
}
