package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.jacobcolvin.com/asscii/ascii"
)

// Flags holds CLI flag names for configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Config  string
	Project string

	Cols          string
	Rows          string
	FPS           string
	Charset       string
	CustomCharset string
	Invert        string
	Binarize      string
	Threshold     string
	Gamma         string
	Contrast      string
	Brightness    string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config holds CLI flag values that override the config file.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.Resolve] after flag parsing to get the
// effective [File].
type Config struct {
	Flags   Flags
	Path    string
	Project string
	Params  ascii.Params
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		Config:        "config",
		Project:       "project",
		Cols:          "cols",
		Rows:          "rows",
		FPS:           "fps",
		Charset:       "charset",
		CustomCharset: "custom-charset",
		Invert:        "invert",
		Binarize:      "binarize",
		Threshold:     "threshold",
		Gamma:         "gamma",
		Contrast:      "contrast",
		Brightness:    "brightness",
	}

	return f.NewConfig()
}

// RegisterFlags adds configuration flags to the given [*pflag.FlagSet].
// Flag defaults mirror [Default]; only flags the user sets override the
// config file.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	d := ascii.DefaultParams()

	flags.StringVar(&c.Path, c.Flags.Config, DefaultPath(),
		"config file (.yaml, .yml or .toml)")
	flags.StringVar(&c.Project, c.Flags.Project, DefaultProjectPath(),
		"mask database path")

	flags.IntVar(&c.Params.Cols, c.Flags.Cols, d.Cols,
		fmt.Sprintf("grid width in glyphs (min %d)", ascii.MinCols))
	flags.IntVar(&c.Params.Rows, c.Flags.Rows, d.Rows,
		fmt.Sprintf("grid height in glyphs (min %d)", ascii.MinRows))
	flags.Float64Var(&c.Params.FPS, c.Flags.FPS, d.FPS,
		"ASCII frames per second")
	flags.StringVar(&c.Params.Charset, c.Flags.Charset, d.Charset,
		fmt.Sprintf("charset, one of: %q", append(ascii.CharsetNames(), ascii.CustomCharset)))
	flags.StringVar(&c.Params.CustomCharset, c.Flags.CustomCharset, d.CustomCharset,
		"glyphs for the Custom charset")
	flags.BoolVar(&c.Params.Invert, c.Flags.Invert, d.Invert,
		"complement tones before glyph lookup")
	flags.BoolVar(&c.Params.Binarize, c.Flags.Binarize, d.Binarize,
		"threshold tones to black or white")
	flags.IntVar(&c.Params.Threshold, c.Flags.Threshold, d.Threshold,
		"binarize threshold in [0,255]")
	flags.Float64Var(&c.Params.Gamma, c.Flags.Gamma, d.Gamma,
		"gamma, applied as x^(1/gamma)")
	flags.Float64Var(&c.Params.Contrast, c.Flags.Contrast, d.Contrast,
		"contrast multiplier around mid-gray")
	flags.Float64Var(&c.Params.Brightness, c.Flags.Brightness, d.Brightness,
		"brightness offset in [-100,100]")
}

// RegisterCompletions registers shell completions for configuration flags
// on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Charset,
		cobra.FixedCompletions(append(ascii.CharsetNames(), ascii.CustomCharset), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Charset, err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.Config,
		cobra.FixedCompletions([]string{"yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Config, err)
	}

	noFileComp := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	for _, flag := range []string{
		c.Flags.Cols, c.Flags.Rows, c.Flags.FPS, c.Flags.CustomCharset,
		c.Flags.Threshold, c.Flags.Gamma, c.Flags.Contrast, c.Flags.Brightness,
	} {
		regErr := cmd.RegisterFlagCompletionFunc(flag, noFileComp)
		if regErr != nil {
			return fmt.Errorf("registering %s completion: %w", flag, regErr)
		}
	}

	return nil
}

// Resolve loads the config file and applies every flag in flags that the
// user changed. flags must be the set [Config.RegisterFlags] registered on.
func (c *Config) Resolve(flags *pflag.FlagSet) (File, error) {
	f, err := Load(c.Path)
	if err != nil {
		return File{}, err
	}

	overrides := map[string]func(){
		c.Flags.Project:       func() { f.Project = c.Project },
		c.Flags.Cols:          func() { f.ASCII.Cols = c.Params.Cols },
		c.Flags.Rows:          func() { f.ASCII.Rows = c.Params.Rows },
		c.Flags.FPS:           func() { f.ASCII.FPS = c.Params.FPS },
		c.Flags.Charset:       func() { f.ASCII.Charset = c.Params.Charset },
		c.Flags.CustomCharset: func() { f.ASCII.CustomCharset = c.Params.CustomCharset },
		c.Flags.Invert:        func() { f.ASCII.Invert = c.Params.Invert },
		c.Flags.Binarize:      func() { f.ASCII.Binarize = c.Params.Binarize },
		c.Flags.Threshold:     func() { f.ASCII.Threshold = c.Params.Threshold },
		c.Flags.Gamma:         func() { f.ASCII.Gamma = c.Params.Gamma },
		c.Flags.Contrast:      func() { f.ASCII.Contrast = c.Params.Contrast },
		c.Flags.Brightness:    func() { f.ASCII.Brightness = c.Params.Brightness },
	}

	for name, apply := range overrides {
		if flags.Changed(name) {
			apply()
		}
	}

	// Custom glyphs given without --charset select the Custom charset.
	if flags.Changed(c.Flags.CustomCharset) && !flags.Changed(c.Flags.Charset) && c.Params.CustomCharset != "" {
		f.ASCII.Charset = ascii.CustomCharset
	}

	return f, nil
}
