// Package config loads asscii settings from a YAML or TOML file and merges
// them with command-line flags.
//
// Settings resolve in three layers: built-in defaults, then the config file,
// then flags the user actually set. A missing config file is not an error.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/pelletier/go-toml/v2"

	"go.jacobcolvin.com/asscii/ascii"
	"go.jacobcolvin.com/asscii/export"
	"go.jacobcolvin.com/asscii/framecache"
	"go.jacobcolvin.com/asscii/render"
)

const appName = "asscii"

var (
	// ErrReadConfig indicates the config file exists but could not be read
	// or decoded.
	ErrReadConfig = errors.New("cannot read config")

	// ErrUnsupportedFormat indicates a config file extension other than
	// .yaml, .yml or .toml.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// File is the on-disk configuration.
type File struct {
	ASCII   ascii.Params `json:"ascii" yaml:"ascii" toml:"ascii" jsonschema:"conversion parameters"`
	Player  Player       `json:"player" yaml:"player" toml:"player" jsonschema:"terminal preview settings"`
	Export  Export       `json:"export" yaml:"export" toml:"export" jsonschema:"subtitle export defaults"`
	Project string       `json:"project,omitempty" yaml:"project" toml:"project" jsonschema:"path of the SQLite database holding erase masks"`
}

// Player holds terminal preview settings.
type Player struct {
	FontPaths      []string `json:"fontPaths,omitempty" yaml:"fontPaths" toml:"fontPaths" jsonschema:"font files tried in order to measure the glyph cell"`
	PrefetchRadius int      `json:"prefetchRadius,omitempty" yaml:"prefetchRadius" toml:"prefetchRadius" jsonschema:"frames converted ahead of and behind the playhead"`
	FontSize       float64  `json:"fontSize,omitempty" yaml:"fontSize" toml:"fontSize" jsonschema:"font size in points for the glyph cell"`
	AspectLock     bool     `json:"aspectLock,omitempty" yaml:"aspectLock" toml:"aspectLock" jsonschema:"derive rows from cols and the video aspect ratio"`
}

// Export holds subtitle export defaults.
type Export struct {
	FontName string  `json:"fontName,omitempty" yaml:"fontName" toml:"fontName" jsonschema:"font family named in the subtitle style"`
	Mode     string  `json:"mode,omitempty" yaml:"mode" toml:"mode" jsonschema:"export window: full, current or custom"`
	FontSize float64 `json:"fontSize,omitempty" yaml:"fontSize" toml:"fontSize" jsonschema:"font size in the subtitle style"`
	Duration float64 `json:"duration,omitempty" yaml:"duration" toml:"duration" jsonschema:"custom window length in seconds"`
	PosX     int     `json:"posX,omitempty" yaml:"posX" toml:"posX" jsonschema:"horizontal position of the grid in PlayRes pixels"`
	PosY     int     `json:"posY,omitempty" yaml:"posY" toml:"posY" jsonschema:"vertical position of the grid in PlayRes pixels"`
}

// Default returns the built-in configuration.
func Default() File {
	return File{
		ASCII: ascii.DefaultParams(),
		Player: Player{
			FontPaths:      render.DefaultFontPaths(),
			FontSize:       render.DefaultFontSize,
			PrefetchRadius: framecache.DefaultRadius,
		},
		Export: Export{
			FontName: export.DefaultFontName,
			FontSize: export.DefaultFontSize,
			Mode:     string(export.ModeFull),
			Duration: export.DefaultDuration,
		},
		Project: DefaultProjectPath(),
	}
}

// Validate checks every section of f.
func (f File) Validate() error {
	err := f.ASCII.Validate()
	if err != nil {
		return err
	}

	_, err = export.ParseMode(f.Export.Mode)
	if err != nil {
		return err
	}

	if f.Player.PrefetchRadius < 0 {
		return fmt.Errorf("%w: prefetch radius %d", ascii.ErrInvalidParameter, f.Player.PrefetchRadius)
	}

	return nil
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}

	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}

	return filepath.Join(home, ".local", "share")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.yaml")
}

// DefaultProjectPath returns the default mask database path.
func DefaultProjectPath() string {
	return filepath.Join(XDGDataHome(), appName, "masks.db")
}

// Load reads path over the built-in defaults. Keys absent from the file
// keep their defaults; unknown keys are rejected. A missing file yields the
// defaults.
func Load(path string) (File, error) {
	f := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}

	if err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrReadConfig, err)
	}

	err = Decode(path, data, &f)
	if err != nil {
		return File{}, err
	}

	return f, nil
}

// Decode decodes data into f, choosing the format from the extension of
// path.
func Decode(path string, data []byte, f *File) error {
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalWithOptions(data, f, yaml.DisallowUnknownField())

	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(f)

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadConfig, path, err)
	}

	return nil
}

// Encode writes f to w as YAML.
func Encode(w io.Writer, f File) error {
	data, err := yaml.MarshalWithOptions(f, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Schema returns the JSON Schema of [File], indented by two spaces.
func Schema() ([]byte, error) {
	s, err := jsonschema.For[File](nil)
	if err != nil {
		return nil, fmt.Errorf("building schema: %w", err)
	}

	s.Title = appName + " configuration"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}

	return data, nil
}
