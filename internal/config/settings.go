// Package config layers dotenvng settings from the user config file, the
// project file and DOTENV_* environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/xmazu/dotenvng/internal/envfile"
	"github.com/xmazu/dotenvng/internal/logging"
	"github.com/xmazu/dotenvng/internal/storage"
)

// EnvPrefix is the prefix of the environment overrides, e.g.
// DOTENV_OVERWRITE_EXISTING=true.
const EnvPrefix = "DOTENV"

// Settings holds every configurable value. A nil field is unset and leaves
// the lower layer in place.
type Settings struct {
	IgnoreLiteralCase    *bool   `yaml:"ignore_literal_case,omitempty" envconfig:"IGNORE_LITERAL_CASE"`
	ParseLiterals        *bool   `yaml:"parse_literals,omitempty" envconfig:"PARSE_LITERALS"`
	ParseNumbers         *bool   `yaml:"parse_numbers,omitempty" envconfig:"PARSE_NUMBERS"`
	AllowEmptyVariables  *bool   `yaml:"allow_empty_variables,omitempty" envconfig:"ALLOW_EMPTY_VARIABLES"`
	AllowOrphanKeys      *bool   `yaml:"allow_orphan_keys,omitempty" envconfig:"ALLOW_ORPHAN_KEYS"`
	InterpolationEnabled *bool   `yaml:"interpolation_enabled,omitempty" envconfig:"INTERPOLATION_ENABLED"`
	OverwriteExisting    *bool   `yaml:"overwrite_existing,omitempty" envconfig:"OVERWRITE_EXISTING"`
	Normalize            *bool   `yaml:"normalize,omitempty" envconfig:"NORMALIZE"`
	Environment          *string `yaml:"environment,omitempty" envconfig:"ENVIRONMENT"`

	LogLevel  *string `yaml:"log_level,omitempty" envconfig:"LOG_LEVEL"`
	LogFormat *string `yaml:"log_format,omitempty" envconfig:"LOG_FORMAT"`

	// Exclude lists doublestar globs, relative to the workspace root, that
	// `ls` skips.
	Exclude []string `yaml:"exclude,omitempty" envconfig:"EXCLUDE"`
}

// Defaults returns the parser defaults as fully populated settings.
func Defaults() *Settings {
	opts := envfile.DefaultOptions()
	level, format := logging.DefaultLevel, logging.DefaultFormat
	return &Settings{
		IgnoreLiteralCase:    &opts.IgnoreLiteralCase,
		ParseLiterals:        &opts.ParseLiterals,
		ParseNumbers:         &opts.ParseNumbers,
		AllowEmptyVariables:  &opts.AllowEmptyVariables,
		AllowOrphanKeys:      &opts.AllowOrphanKeys,
		InterpolationEnabled: &opts.InterpolationEnabled,
		OverwriteExisting:    &opts.OverwriteExisting,
		Normalize:            &opts.Normalize,
		LogLevel:             &level,
		LogFormat:            &format,
	}
}

// Load reads the user file, the project file under projectRoot (skipped
// when projectRoot is empty) and the environment, later layers winning.
// Missing files are not an error.
func Load(projectRoot string) (*Settings, error) {
	log := logging.For("config")
	s := &Settings{}

	paths := []string{UserPath()}
	if projectRoot != "" {
		paths = append(paths, ProjectPath(projectRoot))
	}
	for _, p := range paths {
		layer, found, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		if found {
			log.WithField("path", p).Debug("loaded settings file")
			s.Merge(layer)
		}
	}

	env, err := FromEnv()
	if err != nil {
		return nil, err
	}
	s.Merge(env)
	return s, nil
}

// LoadFile reads a single settings file.
func LoadFile(path string) (*Settings, bool, error) {
	s := &Settings{}
	found, err := storage.NewYAMLFile(path).LoadIfExists(s)
	if err != nil {
		return nil, false, fmt.Errorf("load settings: %w", err)
	}
	return s, found, nil
}

// FromEnv reads DOTENV_* variables.
func FromEnv() (*Settings, error) {
	s := &Settings{}
	if err := envconfig.Process(EnvPrefix, s); err != nil {
		return nil, fmt.Errorf("read %s_* environment: %w", EnvPrefix, err)
	}
	return s, nil
}

// Save writes s to path.
func (s *Settings) Save(path string) error {
	return storage.NewYAMLFile(path).SaveWithPerm(s, 0644)
}

// Merge copies every set field of o over s.
func (s *Settings) Merge(o *Settings) {
	if o == nil {
		return
	}
	mergeBool(&s.IgnoreLiteralCase, o.IgnoreLiteralCase)
	mergeBool(&s.ParseLiterals, o.ParseLiterals)
	mergeBool(&s.ParseNumbers, o.ParseNumbers)
	mergeBool(&s.AllowEmptyVariables, o.AllowEmptyVariables)
	mergeBool(&s.AllowOrphanKeys, o.AllowOrphanKeys)
	mergeBool(&s.InterpolationEnabled, o.InterpolationEnabled)
	mergeBool(&s.OverwriteExisting, o.OverwriteExisting)
	mergeBool(&s.Normalize, o.Normalize)
	mergeString(&s.Environment, o.Environment)
	mergeString(&s.LogLevel, o.LogLevel)
	mergeString(&s.LogFormat, o.LogFormat)
	if len(o.Exclude) > 0 {
		s.Exclude = append([]string(nil), o.Exclude...)
	}
}

func mergeBool(dst **bool, src *bool) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func mergeString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Apply overrides opts with every set field of s.
func (s *Settings) Apply(opts *envfile.Options) {
	applyBool(&opts.IgnoreLiteralCase, s.IgnoreLiteralCase)
	applyBool(&opts.ParseLiterals, s.ParseLiterals)
	applyBool(&opts.ParseNumbers, s.ParseNumbers)
	applyBool(&opts.AllowEmptyVariables, s.AllowEmptyVariables)
	applyBool(&opts.AllowOrphanKeys, s.AllowOrphanKeys)
	applyBool(&opts.InterpolationEnabled, s.InterpolationEnabled)
	applyBool(&opts.OverwriteExisting, s.OverwriteExisting)
	applyBool(&opts.Normalize, s.Normalize)
	if s.Environment != nil {
		opts.Environment = *s.Environment
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Options returns the parser defaults with s applied.
func (s *Settings) Options() envfile.Options {
	opts := envfile.DefaultOptions()
	s.Apply(&opts)
	return opts
}

// ConfigureLogging applies the log level and format settings.
func (s *Settings) ConfigureLogging() error {
	if s.LogLevel != nil {
		if err := logging.SetLevel(*s.LogLevel); err != nil {
			return err
		}
	}
	if s.LogFormat != nil {
		if err := logging.SetFormat(*s.LogFormat); err != nil {
			return err
		}
	}
	logging.For("config").WithFields(logrus.Fields{
		"environment": deref(s.Environment),
		"exclude":     logging.Keys(s.Exclude),
	}).Debug("settings resolved")
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
