// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config holds the options recognized by the authorship engine and
// its host, and loads them from a YAML file, the environment and defaults.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every option when read from the environment,
// e.g. GITAUTHORS_COUNT_EMPTY_LINES.
const EnvPrefix = "GITAUTHORS"

// DefaultFileName is looked up in the search directories when no explicit
// config file is given.
const DefaultFileName = ".gitauthors"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full option surface.
type Config struct {
	ShowContribution bool   `mapstructure:"show_contribution" yaml:"show_contribution"`
	ShowLineCount    bool   `mapstructure:"show_line_count" yaml:"show_line_count"`
	ShowEmail        bool   `mapstructure:"show_email_address" yaml:"show_email_address"`
	Href             string `mapstructure:"href" yaml:"href"`
	CountEmptyLines  bool   `mapstructure:"count_empty_lines" yaml:"count_empty_lines"`
	FallbackToEmpty  bool   `mapstructure:"fallback_to_empty" yaml:"fallback_to_empty"`
	Enabled          bool   `mapstructure:"enabled" yaml:"enabled"`
	Strict           bool   `mapstructure:"strict" yaml:"strict"`
	AddCoAuthors     bool   `mapstructure:"add_co_authors" yaml:"add_co_authors"`

	// Exclude holds doublestar patterns matched against repository-relative paths.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
	// IgnoreCommits is the path of a file listing one commit hash per line.
	IgnoreCommits string   `mapstructure:"ignore_commits" yaml:"ignore_commits"`
	IgnoreAuthors []string `mapstructure:"ignore_authors" yaml:"ignore_authors"`

	SortAuthorsBy string `mapstructure:"sort_authors_by" yaml:"sort_authors_by"`
	SortReverse   bool   `mapstructure:"sort_reverse" yaml:"sort_reverse"`

	AuthorshipThresholdPercent float64 `mapstructure:"authorship_threshold_percent" yaml:"authorship_threshold_percent"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ShowEmail:       true,
		Href:            "mailto:{email}",
		CountEmptyLines: true,
		Enabled:         true,
		SortAuthorsBy:   "name",
	}
}

// Load reads configuration from path, or from DefaultFileName in the first of
// dirs that contains one when path is empty. A missing default file is not an
// error; a missing explicit file is.
func Load(path string, dirs ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultFileName)
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
	}

	if path != "" || len(dirs) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if path != "" || !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("show_contribution", cfg.ShowContribution)
	v.SetDefault("show_line_count", cfg.ShowLineCount)
	v.SetDefault("show_email_address", cfg.ShowEmail)
	v.SetDefault("href", cfg.Href)
	v.SetDefault("count_empty_lines", cfg.CountEmptyLines)
	v.SetDefault("fallback_to_empty", cfg.FallbackToEmpty)
	v.SetDefault("enabled", cfg.Enabled)
	v.SetDefault("strict", cfg.Strict)
	v.SetDefault("add_co_authors", cfg.AddCoAuthors)
	v.SetDefault("exclude", []string{})
	v.SetDefault("ignore_commits", cfg.IgnoreCommits)
	v.SetDefault("ignore_authors", []string{})
	v.SetDefault("sort_authors_by", cfg.SortAuthorsBy)
	v.SetDefault("sort_reverse", cfg.SortReverse)
	v.SetDefault("authorship_threshold_percent", cfg.AuthorshipThresholdPercent)
}

// Validate checks option values that the type system cannot.
func (c *Config) Validate() error {
	if _, err := ParseSortKey(c.SortAuthorsBy); err != nil {
		return err
	}
	if c.AuthorshipThresholdPercent < 0 || c.AuthorshipThresholdPercent > 100 {
		return fmt.Errorf("%w: authorship_threshold_percent must be within 0..100, got %v",
			ErrInvalid, c.AuthorshipThresholdPercent)
	}
	return nil
}

// SortKey selects how author lists are ordered.
type SortKey int

const (
	SortByName SortKey = iota
	SortByContribution
)

func (k SortKey) String() string {
	switch k {
	case SortByContribution:
		return "contribution"
	default:
		return "name"
	}
}

// ParseSortKey maps the sort_authors_by option onto a SortKey.
// An empty value means SortByName.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return SortByName, nil
	case "contribution":
		return SortByContribution, nil
	default:
		return SortByName, fmt.Errorf("%w: sort_authors_by must be \"name\" or \"contribution\", got %q", ErrInvalid, s)
	}
}

// LoadIgnoredCommits reads a newline-delimited list of commit hashes.
// Blank lines and lines starting with '#' are skipped, and hashes are
// lowercased. An empty path yields no hashes.
func LoadIgnoredCommits(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ignore_commits file: %w", err)
	}
	defer f.Close()

	var out []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Allow trailing comments after the hash.
		if i := strings.IndexAny(line, " \t#"); i >= 0 {
			line = line[:i]
		}
		out = append(out, strings.ToLower(line))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore_commits file: %w", err)
	}
	return out, nil
}
