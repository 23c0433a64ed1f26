// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ProfileConfig is the profiles file, stored at
// $XDG_CONFIG_HOME/sensorchart/config.yaml.
type ProfileConfig struct {
	CurrentProfile string             `yaml:"current-profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile names a sensor: where its readings live and how its chart is
// labeled. Profile values sit between the built-in defaults and the
// environment in the precedence order.
type Profile struct {
	Source        SourceProfile `yaml:"source,omitempty"`
	Elasticsearch ESProfile     `yaml:"elasticsearch,omitempty"`
	Chart         ChartProfile  `yaml:"chart,omitempty"`
	OTLP          OTLPProfile   `yaml:"otlp,omitempty"`
}

// SourceProfile holds the readings source of a profile. Credentials may be
// written as ${ENV_VAR} references.
type SourceProfile struct {
	URL      string `yaml:"url,omitempty"`
	Kind     string `yaml:"kind,omitempty"`
	APIKey   string `yaml:"api-key,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

type ESProfile struct {
	Index      string `yaml:"index,omitempty"`
	TimeField  string `yaml:"time-field,omitempty"`
	ValueField string `yaml:"value-field,omitempty"`
}

type ChartProfile struct {
	Title        string   `yaml:"title,omitempty"`
	MissingValue *float64 `yaml:"missing-value,omitempty"` // nil when unset, 0 is a valid sentinel
}

type OTLPProfile struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Insecure *bool  `yaml:"insecure,omitempty"`
}

const (
	ConfigDirName  = "sensorchart"
	ConfigFileName = "config.yaml"
)

// PlainTextWarning is shown after a profile with literal credentials is saved.
const PlainTextWarning = "Warning: credentials are stored in plain text. Reference an environment\n" +
	"variable instead, e.g. --api-key '${SENSOR_API_KEY}'."

// ErrProfileNotFound is returned for a profile name that is not configured.
var ErrProfileNotFound = errors.New("profile not found")

// ProfilesPath returns the location of the profiles file.
func ProfilesPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, ConfigDirName, ConfigFileName), nil
}

// LoadProfiles reads the profiles file. A missing file is an empty
// configuration.
func LoadProfiles() (*ProfileConfig, error) {
	path, err := ProfilesPath()
	if err != nil {
		return nil, err
	}

	cfg := &ProfileConfig{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if info, err := os.Stat(path); err == nil && info.Mode().Perm()&0o077 != 0 {
			logrus.WithField("path", path).Warnf("config file has permissions %04o, should be 0600", info.Mode().Perm())
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	return cfg, nil
}

// SaveProfiles atomically replaces the profiles file. CreateTemp leaves it
// readable by the owner only.
func SaveProfiles(cfg *ProfileConfig) error {
	path, err := ProfilesPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ConfigFileName+".*")
	if err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Lookup returns the named profile.
func (c *ProfileConfig) Lookup(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return p, nil
}

// Put creates or replaces the named profile.
func (c *ProfileConfig) Put(name string, p Profile) {
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	c.Profiles[name] = p
}

// Delete removes the named profile, deselecting it if it was current.
func (c *ProfileConfig) Delete(name string) error {
	if _, err := c.Lookup(name); err != nil {
		return err
	}
	delete(c.Profiles, name)
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}
	return nil
}

// Names returns the profile names in sorted order.
func (c *ProfileConfig) Names() []string {
	if len(c.Profiles) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active returns the profile selected by flag, or the current profile when
// flag is empty. An empty name means no profile applies. A flag naming an
// unknown profile is an error; a stale current-profile is ignored.
func (c *ProfileConfig) Active(flag string) (Profile, string, error) {
	if flag != "" {
		p, err := c.Lookup(flag)
		if err != nil {
			return Profile{}, "", err
		}
		return p, flag, nil
	}
	p, ok := c.Profiles[c.CurrentProfile]
	if !ok || c.CurrentProfile == "" {
		return Profile{}, "", nil
	}
	return p, c.CurrentProfile, nil
}

var envRef = regexp.MustCompile(`^\$\{([^}]+)\}$`)

// IsEnvRef reports whether s is a ${VAR} reference.
func IsEnvRef(s string) bool {
	return envRef.MatchString(s)
}

// secrets returns the credential fields of p by name.
func (p *Profile) secrets() map[string]*string {
	return map[string]*string{
		"api-key":  &p.Source.APIKey,
		"username": &p.Source.Username,
		"password": &p.Source.Password,
	}
}

// Resolve returns a copy of p with ${VAR} credentials replaced by the
// variable's value. An unset variable is an error.
func (p Profile) Resolve() (Profile, error) {
	for name, val := range p.secrets() {
		m := envRef.FindStringSubmatch(*val)
		if m == nil {
			continue
		}
		v, ok := os.LookupEnv(m[1])
		if !ok {
			return Profile{}, fmt.Errorf("undefined environment variable in %s: %s", name, *val)
		}
		*val = v
	}
	return p, nil
}

// HasPlainTextCredentials reports whether a credential is stored literally.
func (p Profile) HasPlainTextCredentials() bool {
	for _, val := range p.secrets() {
		if *val != "" && !IsEnvRef(*val) {
			return true
		}
	}
	return false
}

// Masked returns a copy of p with literal credentials replaced by "****".
func (p Profile) Masked() Profile {
	for _, val := range p.secrets() {
		if *val != "" && !IsEnvRef(*val) {
			*val = "****"
		}
	}
	return p
}

// Summary describes the profile on one line for get-profiles.
func (p Profile) Summary() string {
	var parts []string
	if p.Source.URL != "" {
		parts = append(parts, "source="+p.Source.URL)
	}
	if p.Source.Kind != "" && p.Source.Kind != "auto" {
		parts = append(parts, "kind="+p.Source.Kind)
	}
	if p.Elasticsearch.Index != "" {
		parts = append(parts, "index="+p.Elasticsearch.Index)
	}
	if p.Chart.Title != "" {
		parts = append(parts, fmt.Sprintf("title=%q", p.Chart.Title))
	}
	if p.OTLP.Endpoint != "" {
		parts = append(parts, "otlp="+p.OTLP.Endpoint)
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, ", ")
}

// String renders the configuration as YAML with credentials masked.
func (c ProfileConfig) String() string {
	masked := ProfileConfig{CurrentProfile: c.CurrentProfile, Profiles: make(map[string]Profile, len(c.Profiles))}
	for name, p := range c.Profiles {
		masked.Profiles[name] = p.Masked()
	}
	data, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return strings.TrimSpace(string(data))
}
