package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sfjuke/sfjuke/internal/config"
)

const defaultConfig = `# Where your music lives
library:
  # MIDI files are searched for recursively
  dir: "~/MIDI"
  # directory holding .sf2 SoundFonts
  voices: "/usr/share/sounds/sf2"
  # shuffle the library once at startup; false plays it in sorted order
  shuffle: true

# Live playback through fluidsynth
renderer:
  binary: "fluidsynth"
  audio_driver: "pulseaudio"
  midi_driver: "alsa_seq"
  # 0 keeps fluidsynth's default gain
  gain: 0
  # time between asking the renderer to stop and killing it
  grace: "2s"
  # upper bound on renderer starts per second
  max_spawn_rate: 2

input:
  # how often liveness is checked while waiting for a key
  interval: "1s"

session:
  # advance after this long even if the track is still playing (0 = never)
  max_play: "0s"

metadata:
  # always or never
  mode: "always"
  # midicsv or smf (built in)
  backend: "midicsv"
  midicsv: "midicsv"

# MP3 export ("o" while playing)
export:
  dir: "Output"
  encoder: "lame"
  # kbit/s, 0 keeps lame's default
  bitrate: 0
  # copy the saved file's path to the clipboard
  copy_path: false
`

var printConfig bool

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the sfjuke config file",
	Long:    paragraph(fmt.Sprintf("\n%s the sfjuke config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("sfjuke config\nsfjuke config --print\nsfjuke config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if printConfig {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			b, err := config.Dump(viper.GetViper())
			if err != nil {
				return fmt.Errorf("unable to render config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}

		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("sfjuke", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&printConfig, "print", false, "print the effective configuration instead of editing it")
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if configFile == "" {
			return errors.New("no config file location")
		}
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
