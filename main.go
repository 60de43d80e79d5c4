// Package main provides the entry point for the sfjuke CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sfjuke/sfjuke/internal/config"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	voiceQuery   string
	noShuffle    bool
	metadataMode string

	rootCmd = &cobra.Command{
		Use:   "sfjuke",
		Short: "Play a MIDI library through your SoundFonts",
		Long: paragraph(
			fmt.Sprintf("\nPlay a MIDI library through your SoundFonts, %s!", keyword("one track at a time")),
		),
		Example: paragraph("sfjuke\nsfjuke -d ~/MIDI --voices ~/sf2\nsfjuke --voice fluid --no-shuffle"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// validateOptions folds flags that don't map one to one onto config keys
// into viper.
func validateOptions(cmd *cobra.Command) error {
	if noShuffle {
		viper.Set("library.shuffle", false)
	}
	if cmd.Flags().Changed("metadata") {
		switch metadataMode {
		case config.MetadataAlways, config.MetadataNever:
		default:
			return fmt.Errorf("--metadata must be %q or %q", config.MetadataAlways, config.MetadataNever)
		}
	}
	return nil
}

// envKeyReplacer maps nested keys to env names, so library.dir is read from
// SFJUKE_LIBRARY_DIR.
var envKeyReplacer = strings.NewReplacer(".", "_")

// loadConfig reads the effective configuration.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("unable to read config file %s: %w", configFile, err)
		}
	}
	return config.Load(viper.GetViper())
}

func execute(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return runSession(cmd.Context(), cfg)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", configFile, "config file")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "MIDI library directory (default ~/MIDI)")
	rootCmd.PersistentFlags().String("voices", "", "SoundFont directory (default /usr/share/sounds/sf2)")
	rootCmd.Flags().StringVar(&voiceQuery, "voice", "", "start with the SoundFont best matching this name")
	rootCmd.Flags().StringP("output", "o", "", "directory for saved MP3 files (default ./Output)")
	rootCmd.PersistentFlags().BoolVar(&noShuffle, "no-shuffle", false, "play the library in sorted order")
	rootCmd.Flags().StringVar(&metadataMode, "metadata", config.MetadataAlways, "show track metadata: always or never")

	// Config bindings
	_ = viper.BindPFlag("library.dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("library.voices", rootCmd.PersistentFlags().Lookup("voices"))
	_ = viper.BindPFlag("export.dir", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("metadata.mode", rootCmd.Flags().Lookup("metadata"))

	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, manCmd, aboutCmd, listCmd, depsCmd)
}

// configDirs returns the directories searched for sfjuke.yml, most specific
// first.
func configDirs() ([]string, error) {
	scope := gap.NewScope(gap.User, "sfjuke")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return nil, err
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "sfjuke")}, dirs...)
	}

	if c := os.Getenv("SFJUKE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	if len(dirs) == 0 {
		return nil, errors.New("no configuration directory")
	}
	return dirs, nil
}

func tryLoadConfigFromDefaultPlaces() {
	dirs, err := configDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("sfjuke")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("sfjuke")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "sfjuke.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
