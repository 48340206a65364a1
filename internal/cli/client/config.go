package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cloo-solutions/tastyfind/internal/transport"
)

// Environment overrides shared with the daemon's configuration.
const (
	envAPIURL   = "TASTYFIND_API_URL"
	envPageSize = "TASTYFIND_DEFAULT_PAGE_SIZE"
	envTimeout  = "TASTYFIND_REQUEST_TIMEOUT"
)

// Settings is the per-user CLI configuration stored in config.json
type Settings struct {
	APIURL   string `json:"api_url"`
	PageSize int    `json:"page_size,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

var settingsPathFunc = defaultSettingsPath

func defaultSettingsPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "tastyfind", "config.json"), nil
}

// SettingsPath returns the full path to the config.json file
func SettingsPath() (string, error) {
	return settingsPathFunc()
}

// LoadSettings reads config.json. A missing file yields nil settings and no error.
func LoadSettings() (*Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if s.PageSize < 0 {
		return nil, fmt.Errorf("config file %s: page_size must be positive", path)
	}
	if _, err := s.timeout(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &s, nil
}

func (s *Settings) timeout() (time.Duration, error) {
	if s == nil || s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid timeout %q", s.Timeout)
	}
	return d, nil
}

// SaveSettings replaces config.json through a temp file so a failed write
// never leaves a truncated config behind.
func SaveSettings(s *Settings) error {
	if s == nil {
		return errors.New("settings cannot be nil")
	}
	path, err := SettingsPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ClearSettings removes config.json. Removing a missing file is not an error.
func ClearSettings() error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Source records where a setting came from
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceFile    Source = "config_file"
	SourceDefault Source = "default"
)

// Overrides are values given on the command line. Zero means not given.
type Overrides struct {
	APIURL   string
	PageSize int
	Timeout  time.Duration
}

// Resolved is the effective CLI configuration.
type Resolved struct {
	APIURL         string        `json:"api_url"`
	APIURLSource   Source        `json:"api_url_source"`
	PageSize       int           `json:"page_size"`
	PageSizeSource Source        `json:"page_size_source"`
	Timeout        time.Duration `json:"timeout"`
	TimeoutSource  Source        `json:"timeout_source"`
}

// Resolve applies flag, then env, then config.json, then the built-in default,
// per setting.
func Resolve(o Overrides) (Resolved, error) {
	s, err := LoadSettings()
	if err != nil {
		return Resolved{}, err
	}
	if s == nil {
		s = &Settings{}
	}

	r := Resolved{
		APIURL:         transport.DefaultBaseURL,
		APIURLSource:   SourceDefault,
		PageSize:       defaultPageSize,
		PageSizeSource: SourceDefault,
		TimeoutSource:  SourceDefault,
	}

	switch {
	case o.APIURL != "":
		r.APIURL, r.APIURLSource = o.APIURL, SourceFlag
	case os.Getenv(envAPIURL) != "":
		r.APIURL, r.APIURLSource = os.Getenv(envAPIURL), SourceEnv
	case s.APIURL != "":
		r.APIURL, r.APIURLSource = s.APIURL, SourceFile
	}

	switch {
	case o.PageSize > 0:
		r.PageSize, r.PageSizeSource = o.PageSize, SourceFlag
	case os.Getenv(envPageSize) != "":
		n, err := strconv.Atoi(os.Getenv(envPageSize))
		if err != nil || n < 1 {
			return Resolved{}, fmt.Errorf("%s must be a positive integer", envPageSize)
		}
		r.PageSize, r.PageSizeSource = n, SourceEnv
	case s.PageSize > 0:
		r.PageSize, r.PageSizeSource = s.PageSize, SourceFile
	}

	switch {
	case o.Timeout > 0:
		r.Timeout, r.TimeoutSource = o.Timeout, SourceFlag
	case os.Getenv(envTimeout) != "":
		d, err := time.ParseDuration(os.Getenv(envTimeout))
		if err != nil || d < 0 {
			return Resolved{}, fmt.Errorf("%s must be a duration such as 30s", envTimeout)
		}
		r.Timeout, r.TimeoutSource = d, SourceEnv
	case s.Timeout != "":
		r.Timeout, _ = s.timeout()
		r.TimeoutSource = SourceFile
	}

	return r, nil
}
