// Package config holds the player's settings and loads them from viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sfjuke/sfjuke/internal/export"
	"github.com/sfjuke/sfjuke/internal/renderer"
	"github.com/sfjuke/sfjuke/utils"
)

// Metadata display modes.
const (
	MetadataAlways = "always"
	MetadataNever  = "never"
)

// Metadata backends.
const (
	BackendMidicsv = "midicsv"
	BackendSMF     = "smf"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete player configuration.
type Config struct {
	Library  LibraryConfig  `yaml:"library" mapstructure:"library"`
	Renderer RendererConfig `yaml:"renderer" mapstructure:"renderer"`
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Session  SessionConfig  `yaml:"session" mapstructure:"session"`
	Metadata MetadataConfig `yaml:"metadata" mapstructure:"metadata"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
}

// LibraryConfig says where tracks and SoundFonts live.
type LibraryConfig struct {
	// Root of the MIDI library, searched recursively
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Directory holding .sf2 files
	Voices string `yaml:"voices" mapstructure:"voices"`

	// Shuffle the library once at startup instead of sorting it
	Shuffle bool `yaml:"shuffle" mapstructure:"shuffle"`
}

// RendererConfig controls the live synthesizer.
type RendererConfig struct {
	Binary      string  `yaml:"binary" mapstructure:"binary"`
	AudioDriver string  `yaml:"audio_driver" mapstructure:"audio_driver"`
	MidiDriver  string  `yaml:"midi_driver" mapstructure:"midi_driver"`
	Gain        float64 `yaml:"gain" mapstructure:"gain"`

	// Time between SIGTERM and SIGKILL
	Grace time.Duration `yaml:"grace" mapstructure:"grace"`

	// Upper bound on renderer starts per second
	MaxSpawnRate float64 `yaml:"max_spawn_rate" mapstructure:"max_spawn_rate"`
}

// InputConfig controls keyboard polling.
type InputConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// SessionConfig controls the playback loop.
type SessionConfig struct {
	// Advance after this long even if the track is still playing. Zero
	// plays every track to the end.
	MaxPlay time.Duration `yaml:"max_play" mapstructure:"max_play"`
}

// MetadataConfig controls the metadata pane.
type MetadataConfig struct {
	Mode    string `yaml:"mode" mapstructure:"mode"`
	Backend string `yaml:"backend" mapstructure:"backend"`
	Midicsv string `yaml:"midicsv" mapstructure:"midicsv"`
}

// ExportConfig controls MP3 export.
type ExportConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Encoder  string `yaml:"encoder" mapstructure:"encoder"`
	Bitrate  int    `yaml:"bitrate" mapstructure:"bitrate"`
	CopyPath bool   `yaml:"copy_path" mapstructure:"copy_path"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Library: LibraryConfig{
			Dir:     "~/MIDI",
			Voices:  "/usr/share/sounds/sf2",
			Shuffle: true,
		},
		Renderer: RendererConfig{
			Binary:       "fluidsynth",
			AudioDriver:  "pulseaudio",
			MidiDriver:   "alsa_seq",
			Grace:        renderer.DefaultGrace,
			MaxSpawnRate: 2,
		},
		Input: InputConfig{
			Interval: time.Second,
		},
		Metadata: MetadataConfig{
			Mode:    MetadataAlways,
			Backend: BackendMidicsv,
			Midicsv: "midicsv",
		},
		Export: ExportConfig{
			Dir:     export.DefaultDir,
			Encoder: "lame",
		},
	}
}

// SetDefaults registers Default with v. Durations are registered as strings
// so that a printed config reads naturally.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("library.dir", d.Library.Dir)
	v.SetDefault("library.voices", d.Library.Voices)
	v.SetDefault("library.shuffle", d.Library.Shuffle)
	v.SetDefault("renderer.binary", d.Renderer.Binary)
	v.SetDefault("renderer.audio_driver", d.Renderer.AudioDriver)
	v.SetDefault("renderer.midi_driver", d.Renderer.MidiDriver)
	v.SetDefault("renderer.gain", d.Renderer.Gain)
	v.SetDefault("renderer.grace", d.Renderer.Grace.String())
	v.SetDefault("renderer.max_spawn_rate", d.Renderer.MaxSpawnRate)
	v.SetDefault("input.interval", d.Input.Interval.String())
	v.SetDefault("session.max_play", d.Session.MaxPlay.String())
	v.SetDefault("metadata.mode", d.Metadata.Mode)
	v.SetDefault("metadata.backend", d.Metadata.Backend)
	v.SetDefault("metadata.midicsv", d.Metadata.Midicsv)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.encoder", d.Export.Encoder)
	v.SetDefault("export.bitrate", d.Export.Bitrate)
	v.SetDefault("export.copy_path", d.Export.CopyPath)
}

// Load decodes v into a Config, expands paths and validates the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Library.Dir = utils.ExpandPath(cfg.Library.Dir)
	cfg.Library.Voices = utils.ExpandPath(cfg.Library.Voices)
	cfg.Export.Dir = utils.ExpandPath(cfg.Export.Dir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the player cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.Library.Dir == "" {
		errs = append(errs, errors.New("library.dir must be set"))
	}
	if c.Library.Voices == "" {
		errs = append(errs, errors.New("library.voices must be set"))
	}
	if c.Renderer.Binary == "" {
		errs = append(errs, errors.New("renderer.binary must be set"))
	}
	if c.Renderer.Gain < 0 || c.Renderer.Gain > 10 {
		errs = append(errs, fmt.Errorf("renderer.gain must be between 0 and 10, got %v", c.Renderer.Gain))
	}
	if c.Renderer.Grace < 0 {
		errs = append(errs, errors.New("renderer.grace must not be negative"))
	}
	if c.Renderer.MaxSpawnRate < 0 {
		errs = append(errs, errors.New("renderer.max_spawn_rate must not be negative"))
	}
	if c.Input.Interval <= 0 {
		errs = append(errs, errors.New("input.interval must be positive"))
	}
	if c.Session.MaxPlay < 0 {
		errs = append(errs, errors.New("session.max_play must not be negative"))
	}
	switch c.Metadata.Mode {
	case MetadataAlways, MetadataNever:
	default:
		errs = append(errs, fmt.Errorf("metadata.mode must be %q or %q, got %q", MetadataAlways, MetadataNever, c.Metadata.Mode))
	}
	switch c.Metadata.Backend {
	case BackendMidicsv, BackendSMF:
	default:
		errs = append(errs, fmt.Errorf("metadata.backend must be %q or %q, got %q", BackendMidicsv, BackendSMF, c.Metadata.Backend))
	}
	if c.Export.Bitrate < 0 || c.Export.Bitrate > 320 {
		errs = append(errs, fmt.Errorf("export.bitrate must be between 0 and 320, got %d", c.Export.Bitrate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// ShowMetadata reports whether the metadata pane is enabled.
func (c Config) ShowMetadata() bool {
	return c.Metadata.Mode == MetadataAlways
}

// NeedsMidicsv reports whether midicsv must be installed.
func (c Config) NeedsMidicsv() bool {
	return c.ShowMetadata() && c.Metadata.Backend == BackendMidicsv
}

// RendererConfig converts the renderer section for the renderer package.
func (c Config) RendererConfig() renderer.Config {
	return renderer.Config{
		Binary:      c.Renderer.Binary,
		AudioDriver: c.Renderer.AudioDriver,
		MidiDriver:  c.Renderer.MidiDriver,
		Gain:        c.Renderer.Gain,
		Grace:       c.Renderer.Grace,
	}
}

// Dump renders the settings held by v as YAML.
func Dump(v *viper.Viper) ([]byte, error) {
	return yaml.Marshal(v.AllSettings())
}
