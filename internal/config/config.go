package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	AppName               = "dotlist"
	DefaultConfigFileName = "config.toml"
	DefaultBackend        = "json"
	EnvConfigPath         = "DOTLIST_CONFIG"
	EnvDataDir            = "DOTLIST_DATA_DIR"

	defaultTickInterval = 100
	defaultPageSize     = 10
)

type Keymap struct {
	Quit          string `toml:"quit"`
	Up            string `toml:"up"`
	Down          string `toml:"down"`
	Start         string `toml:"start"`
	End           string `toml:"end"`
	PageUp        string `toml:"page_up"`
	PageDown      string `toml:"page_down"`
	Dot           string `toml:"dot"`
	Complete      string `toml:"complete"`
	Recur         string `toml:"recur"`
	Snooze        string `toml:"snooze"`
	Unsnooze      string `toml:"unsnooze"`
	Delete        string `toml:"delete"`
	Add           string `toml:"add"`
	Modify        string `toml:"modify"`
	FutureFilter  string `toml:"future_filter"`
	DottedFilter  string `toml:"dotted_filter"`
	ShowCompleted string `toml:"show_completed"`
	Help          string `toml:"help"`
	Details       string `toml:"details"`
	Confirm       string `toml:"confirm"`
	Cancel        string `toml:"cancel"`
}

// Filter holds the view filters applied at startup. Toggling them at
// runtime is not written back.
type Filter struct {
	ShowCompleted bool `toml:"show_completed"`
	HideFuture    bool `toml:"hide_future"`
	DottedOnly    bool `toml:"dotted_only"`
}

type Config struct {
	DataDir        string `toml:"data_dir"`
	Backend        string `toml:"backend"`
	TickIntervalMS int    `toml:"tick_interval_ms"`
	PageSize       int    `toml:"page_size"`
	LogFile        string `toml:"log_file"`
	Filter         Filter `toml:"filter"`
	Keys           Keymap `toml:"keys"`
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// ResolveConfigPath honours $DOTLIST_CONFIG, then the user config dir.
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(defaultDir(), DefaultConfigFileName)
}

func defaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	return filepath.Join(base, AppName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.withEnv(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.fillDefaults(filepath.Dir(path))
	return cfg.withEnv(), nil
}

func (c *Config) fillDefaults(dir string) {
	def := defaultConfig(dir)
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.TickIntervalMS <= 0 {
		c.TickIntervalMS = def.TickIntervalMS
	}
	if c.PageSize <= 0 {
		c.PageSize = def.PageSize
	}
	fillKey(&c.Keys.Quit, def.Keys.Quit)
	fillKey(&c.Keys.Up, def.Keys.Up)
	fillKey(&c.Keys.Down, def.Keys.Down)
	fillKey(&c.Keys.Start, def.Keys.Start)
	fillKey(&c.Keys.End, def.Keys.End)
	fillKey(&c.Keys.PageUp, def.Keys.PageUp)
	fillKey(&c.Keys.PageDown, def.Keys.PageDown)
	fillKey(&c.Keys.Dot, def.Keys.Dot)
	fillKey(&c.Keys.Complete, def.Keys.Complete)
	fillKey(&c.Keys.Recur, def.Keys.Recur)
	fillKey(&c.Keys.Snooze, def.Keys.Snooze)
	fillKey(&c.Keys.Unsnooze, def.Keys.Unsnooze)
	fillKey(&c.Keys.Delete, def.Keys.Delete)
	fillKey(&c.Keys.Add, def.Keys.Add)
	fillKey(&c.Keys.Modify, def.Keys.Modify)
	fillKey(&c.Keys.FutureFilter, def.Keys.FutureFilter)
	fillKey(&c.Keys.DottedFilter, def.Keys.DottedFilter)
	fillKey(&c.Keys.ShowCompleted, def.Keys.ShowCompleted)
	fillKey(&c.Keys.Help, def.Keys.Help)
	fillKey(&c.Keys.Details, def.Keys.Details)
	fillKey(&c.Keys.Confirm, def.Keys.Confirm)
	fillKey(&c.Keys.Cancel, def.Keys.Cancel)
}

func fillKey(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func (c Config) withEnv() Config {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = dir
	}
	return c
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(dir string) Config {
	return Config{
		DataDir:        dir,
		Backend:        DefaultBackend,
		TickIntervalMS: defaultTickInterval,
		PageSize:       defaultPageSize,
		Filter:         Filter{HideFuture: true},
		Keys: Keymap{
			Quit:          "q",
			Up:            "k",
			Down:          "j",
			Start:         "g",
			End:           "G",
			PageUp:        "ctrl+u",
			PageDown:      "ctrl+d",
			Dot:           ".",
			Complete:      "d",
			Recur:         "r",
			Snooze:        "z",
			Unsnooze:      "Z",
			Delete:        "x",
			Add:           "a",
			Modify:        "m",
			FutureFilter:  "f",
			DottedFilter:  "o",
			ShowCompleted: "c",
			Help:          "h",
			Details:       "p",
			Confirm:       "enter",
			Cancel:        "esc",
		},
	}
}
