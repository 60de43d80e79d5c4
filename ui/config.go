package ui

// Config contains presentation settings. Fields with env tags are read from
// the environment.
type Config struct {
	// Width caps the rendered width. Zero follows the terminal.
	Width int `env:"SFJUKE_WIDTH"`

	// Accent is the highlight color.
	Accent string `env:"SFJUKE_ACCENT" envDefault:"#04B575"`

	// MetadataLines limits how many metadata lines are shown.
	MetadataLines int `env:"SFJUKE_METADATA_LINES" envDefault:"12"`

	// ClearScreen redraws from the top for every frame instead of
	// scrolling.
	ClearScreen bool `env:"SFJUKE_CLEAR_SCREEN" envDefault:"true"`

	// NoColor disables colors when set to any value.
	NoColor string `env:"NO_COLOR"`

	// ShowHelp shows the key legend under every frame.
	ShowHelp bool `env:"SFJUKE_SHOW_HELP" envDefault:"true"`
}
