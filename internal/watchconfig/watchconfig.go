// Package watchconfig loads .fieldwatch.yaml, the declarative, non-debugger
// alternative to calling EmulateFieldWatchpoint by hand: a list of fields to
// track and their seed (subclass) types, applied once at program start the
// same way a constructor or package-init interception would trigger a field
// watchpoint in the source this engine is modeled on.
package watchconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kolkov/fieldwatch/internal/agent"
)

// Field is one entry of the fields list: a tracked (class, field) pair, its
// Go type descriptor, and any seed classes whose symbolic writes to the
// field should resolve back to Class.
type Field struct {
	// Class is the owning type's name, matching the ownerClass argument
	// TransformAndSaveFieldWrite is called with.
	Class string `yaml:"class"`

	// Field is the field name within Class.
	Field string `yaml:"field"`

	// Type is the field's Go type descriptor, recorded for documentation
	// and future descriptor-based disambiguation; it plays no role in
	// lookup today.
	Type string `yaml:"type"`

	// Seeds lists same-package types that embed or symbolically reference
	// Class, whose direct writes to Field should resolve back to Class.
	Seeds []string `yaml:"seeds,omitempty"`

	// CaptureStack requests a call stack be recorded on every write to
	// this field, at the extra cost of a stack walk per write.
	CaptureStack bool `yaml:"capture_stack"`

	// Enabled defaults to true; set false to register the field (so its
	// containers still resolve their canonical owner) without turning on
	// history recording yet.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// enabled reports whether the field should have tracking turned on,
// defaulting to true when unset.
func (f Field) enabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// Config is the parsed contents of a .fieldwatch.yaml file.
type Config struct {
	Fields []Field `yaml:"fields"`
}

// Load reads and parses path. A missing file is not an error: it returns an
// empty Config, matching the teacher's config loader's "no file means
// defaults" convention.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("watchconfig: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("watchconfig: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Apply registers every field in c against rt via EmulateFieldWatchpoint,
// then turns tracking back off for any field whose Enabled is explicitly
// false. Fields are always registered (so LookupOwner resolves their
// containers' canonical class) even when tracking starts disabled.
func (c *Config) Apply(rt *agent.Runtime) {
	for _, f := range c.Fields {
		rt.EmulateFieldWatchpoint(f.Class, f.Field, f.Type, f.Seeds...)
		if !f.enabled() {
			rt.EnableTracking(f.Class, f.Field, false)
		}
	}
}

// Field returns the configured entry for (class, field), if any. The
// rewriter uses this to decide whether a given assignment site should be
// instrumented at all, before consulting CaptureStack for its saveStack
// argument.
func (c *Config) Field(class, field string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Class == class && f.Field == field {
			return f, true
		}
	}
	return Field{}, false
}

// ShouldCaptureStack reports whether (class, field) requested capture_stack
// in the config. The rewriter reads the same flag through Field when it
// writes a call site's saveStack argument. Unknown fields default to false:
// a stack walk is extra cost that must be opted into explicitly.
func (c *Config) ShouldCaptureStack(class, field string) bool {
	for _, f := range c.Fields {
		if f.Class == class && f.Field == field {
			return f.CaptureStack
		}
	}
	return false
}
