package waitforit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultsProvider supplies settings for sessions that do not set them as
// options. It is consulted once per New.
type DefaultsProvider interface {
	SessionDefaults() Defaults
}

// Defaults is a fixed set of session defaults. Zero fields are not set and
// fall through to the package defaults. Defaults is itself a
// DefaultsProvider.
type Defaults struct {
	ReadyPattern Pattern
	Timeout      time.Duration
	Redirection  string
	Shell        string
	Env          map[string]string
	LogDir       string
}

// SessionDefaults returns d.
func (d Defaults) SessionDefaults() Defaults {
	return d
}

// DefaultsFunc adapts a function to a DefaultsProvider, for defaults that
// depend on state at the time a session starts.
type DefaultsFunc func() Defaults

// SessionDefaults returns f().
func (f DefaultsFunc) SessionDefaults() Defaults {
	return f()
}

var (
	_ DefaultsProvider = Defaults{}
	_ DefaultsProvider = DefaultsFunc(nil)
)

// defaultsFile is the on-disk form of Defaults.
type defaultsFile struct {
	WaitFor     string            `yaml:"wait_for" toml:"wait_for"`
	ReadyRegexp string            `yaml:"ready_regexp" toml:"ready_regexp"`
	Timeout     duration          `yaml:"timeout" toml:"timeout"`
	Redirection string            `yaml:"redirection" toml:"redirection"`
	Shell       string            `yaml:"shell" toml:"shell"`
	Env         map[string]string `yaml:"env" toml:"env"`
	LogDir      string            `yaml:"log_dir" toml:"log_dir"`
}

// LoadDefaults reads Defaults from a YAML (.yaml, .yml) or TOML (.toml)
// file. Recognized keys are wait_for (a literal), ready_regexp, timeout,
// redirection, shell, env and log_dir. timeout is either a duration string
// such as "1500ms" or a number of seconds. Unknown keys are rejected.
//
// A file that cannot be read is returned as is; a file whose content is
// invalid wraps ErrConfig.
func LoadDefaults(path string) (Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("load defaults: %w", err)
	}

	var f defaultsFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, &f)
	case ".toml":
		err = decodeTOML(data, &f)
	default:
		err = fmt.Errorf("unsupported file extension %q", ext)
	}
	if err != nil {
		return Defaults{}, fmt.Errorf("%w: load defaults %s: %w", ErrConfig, path, err)
	}

	d, err := f.toDefaults()
	if err != nil {
		return Defaults{}, fmt.Errorf("%w: load defaults %s: %w", ErrConfig, path, err)
	}
	return d, nil
}

func decodeYAML(data []byte, f *defaultsFile) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func decodeTOML(data []byte, f *defaultsFile) error {
	md, err := toml.Decode(string(data), f)
	if err != nil {
		return fmt.Errorf("parse toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func (f defaultsFile) toDefaults() (Defaults, error) {
	var errs []error

	d := Defaults{
		Timeout:     time.Duration(f.Timeout),
		Redirection: f.Redirection,
		Shell:       f.Shell,
		Env:         f.Env,
		LogDir:      f.LogDir,
	}

	switch {
	case f.WaitFor != "" && f.ReadyRegexp != "":
		errs = append(errs, errors.New("wait_for and ready_regexp are mutually exclusive"))
	case f.WaitFor != "":
		d.ReadyPattern = Literal(f.WaitFor)
	case f.ReadyRegexp != "":
		re, err := regexp.Compile(f.ReadyRegexp)
		if err != nil {
			errs = append(errs, fmt.Errorf("ready_regexp: %w", err))
		} else {
			d.ReadyPattern = Regexp(re)
		}
	}
	if d.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", d.Timeout))
	}

	return d, errors.Join(errs...)
}

// duration decodes either a Go duration string or a number of seconds.
type duration time.Duration

func parseDuration(s string) (duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return duration(d), nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return secondsToDuration(secs), nil
}

func secondsToDuration(secs float64) duration {
	return duration(secs * float64(time.Second))
}

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timeout must be a scalar", node.Line)
	}
	v, err := parseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = v
	return nil
}

func (d *duration) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		parsed, err := parseDuration(v)
		if err != nil {
			return err
		}
		*d = parsed
	case int64:
		*d = secondsToDuration(float64(v))
	case float64:
		*d = secondsToDuration(v)
	default:
		return fmt.Errorf("timeout must be a string or a number, got %T", data)
	}
	return nil
}
