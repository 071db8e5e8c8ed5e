// Package config loads engine configuration from YAML and supplies the
// stock context specs used when no file is given.
package config

// #region imports
import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/recovery"
)

// #endregion

// #region duration

// Duration wraps time.Duration so YAML files can use forms like "90s"
// or "1500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// #endregion duration

// #region types

// Thresholds are the fusion tier boundaries.
type Thresholds struct {
	High            float64 `yaml:"high"`
	Mid             float64 `yaml:"mid"`
	DisagreementGap float64 `yaml:"disagreement_gap"`
}

// TemplateRef names a reference image on disk and its match floor.
type TemplateRef struct {
	File      string  `yaml:"file"`
	Threshold float64 `yaml:"threshold"`
}

// ContextSpec describes one recognizable screen context.
type ContextSpec struct {
	Tokens    []string      `yaml:"tokens"`
	Templates []TemplateRef `yaml:"templates"`
	Layout    string        `yaml:"layout"`
}

// Route maps a (current, target) context pair to the action that moves
// navigation forward one hop.
type Route struct {
	From   string          `yaml:"from"`
	To     string          `yaml:"to"`
	Action recovery.Action `yaml:"action"`
}

// Config is the full engine configuration.
type Config struct {
	Thresholds  Thresholds             `yaml:"thresholds"`
	MaxRecals   int                    `yaml:"max_recalibrations"`
	LoopWindow  int                    `yaml:"loop_window"`
	MaxTier     int                    `yaml:"max_recovery_tier"`
	Attempts    int                    `yaml:"attempt_budget"`
	TimeBudget  Duration               `yaml:"time_budget"`
	SignalWait  Duration               `yaml:"signal_timeout"`
	SettleDelay Duration               `yaml:"settle_delay"`
	TemplateDir string                 `yaml:"template_dir"`
	OCRLanguage string                 `yaml:"ocr_language"`
	TrailDB     string                 `yaml:"trail_db"`
	Browser     BrowserConfig          `yaml:"browser"`
	Contexts    map[string]ContextSpec `yaml:"contexts"`
	Routes      []Route                `yaml:"routes"`
	Tiers       [][]recovery.Action    `yaml:"recovery_tiers"`
}

// BrowserConfig mirrors the collaborator session settings.
type BrowserConfig struct {
	URL      string   `yaml:"url"`
	Headless bool     `yaml:"headless"`
	Timeout  Duration `yaml:"timeout"`
}

// #endregion types

// #region defaults

// Default returns the stock configuration: the thresholds and context
// specs proven in field runs against the strategy-game frontend.
func Default() Config {
	return Config{
		Thresholds:  Thresholds{High: 0.8, Mid: 0.6, DisagreementGap: 0.35},
		MaxRecals:   3,
		LoopWindow:  4,
		MaxTier:     4,
		Attempts:    8,
		TimeBudget:  Duration(90 * time.Second),
		SignalWait:  Duration(2 * time.Second),
		SettleDelay: Duration(1500 * time.Millisecond),
		OCRLanguage: "eng",
		TrailDB:     "trail.db",
		Browser:     BrowserConfig{Headless: true, Timeout: Duration(30 * time.Second)},
		Contexts:    DefaultContexts(),
		Routes:      DefaultRoutes(),
	}
}

// DefaultContexts returns the stock context specs.
func DefaultContexts() map[string]ContextSpec {
	return map[string]ContextSpec{
		"MAIN_MENU": {
			Tokens: []string{"start", "game", "options", "quit", "dune", "legacy"},
			Layout: "vertical_menu",
		},
		"SINGLE_PLAYER_SUB_MENU": {
			Tokens: []string{"campaign", "skirmish", "load", "back"},
			Layout: "vertical_menu",
		},
		"IN_GAME": {
			Tokens: []string{"spice", "credits", "units", "power", "structures"},
			Layout: "hud",
		},
		"OPTIONS_MENU": {
			Tokens: []string{"video", "audio", "controls", "gameplay", "back"},
			Layout: "panel",
		},
		"SETTINGS": {
			Tokens: []string{"video", "audio", "controls", "gameplay", "back"},
			Layout: "panel",
		},
	}
}

// DefaultRoutes returns the stock one-hop navigation actions.
func DefaultRoutes() []Route {
	return []Route{
		{From: "MAIN_MENU", To: "SINGLE_PLAYER_SUB_MENU", Action: recovery.PressKey("Enter")},
		{From: "SINGLE_PLAYER_SUB_MENU", To: "MAIN_MENU", Action: recovery.PressKey("Escape")},
		{From: "MAIN_MENU", To: "OPTIONS_MENU", Action: recovery.PressKey("o")},
		{From: "OPTIONS_MENU", To: "MAIN_MENU", Action: recovery.PressKey("Escape")},
		{From: "SETTINGS", To: "MAIN_MENU", Action: recovery.PressKey("Escape")},
		{From: "IN_GAME", To: "MAIN_MENU", Action: recovery.PressKey("Escape")},
	}
}

// #endregion defaults

// #region load

// Load reads configuration from a YAML file, layering it over the
// defaults. An empty path returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Thresholds.High <= c.Thresholds.Mid {
		return fmt.Errorf("thresholds: high (%.2f) must exceed mid (%.2f)", c.Thresholds.High, c.Thresholds.Mid)
	}
	if c.Thresholds.Mid <= 0 || c.Thresholds.High > 1 {
		return fmt.Errorf("thresholds: must sit inside (0,1], got mid=%.2f high=%.2f", c.Thresholds.Mid, c.Thresholds.High)
	}
	if c.LoopWindow < 2 {
		return fmt.Errorf("loop_window: need at least 2, got %d", c.LoopWindow)
	}
	if c.MaxRecals < 0 {
		return fmt.Errorf("max_recalibrations: must be >= 0, got %d", c.MaxRecals)
	}
	for label, spec := range c.Contexts {
		if len(spec.Tokens) == 0 && len(spec.Templates) == 0 && spec.Layout == "" {
			return fmt.Errorf("context %s: needs tokens, templates, or a layout class", label)
		}
	}
	return nil
}

// Known returns the configured context labels.
func (c Config) Known() []string {
	labels := make([]string, 0, len(c.Contexts))
	for label := range c.Contexts {
		labels = append(labels, label)
	}
	return labels
}

// #endregion load
