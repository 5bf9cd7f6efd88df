// Package buildinput validates the TOML configuration consumed by the
// external build script before the script is started.
//
// The script itself stays opaque; this package only checks that the files it
// is about to read exist and agree with each other, so a typo fails in seconds
// instead of after FontForge has been loaded.
package buildinput

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrNotFound indicates the inputs file does not exist.
var ErrNotFound = errors.New("build inputs file not found")

// Font is one source font entry.
type Font struct {
	Name     string `toml:"name"`
	Filename string `toml:"filename"`
	Symbols  string `toml:"symbols"`
}

// Inputs is the decoded build configuration.
type Inputs struct {
	MergedFontName string          `toml:"merged_font_name"`
	DefaultFont    string          `toml:"default_font"`
	Fonts          map[string]Font `toml:"fonts"`
}

// Load decodes the TOML file at path. A missing file returns [ErrNotFound].
func Load(path string) (*Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read build inputs: %w", err)
	}

	var in Inputs
	if err := toml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse build inputs %s: %w", path, err)
	}
	return &in, nil
}

// Validate checks the inputs against the files under fontsDir.
//
// All problems are reported together, one per line, in a stable order.
func (in *Inputs) Validate(fontsDir string) error {
	var problems []string

	if strings.TrimSpace(in.MergedFontName) == "" {
		problems = append(problems, "merged_font_name is empty")
	}
	if len(in.Fonts) == 0 {
		problems = append(problems, "no fonts configured")
	}
	if in.DefaultFont != "" {
		if _, ok := in.Fonts[in.DefaultFont]; !ok {
			problems = append(problems, fmt.Sprintf("default_font %q is not a configured font", in.DefaultFont))
		}
	}

	keys := make([]string, 0, len(in.Fonts))
	for k := range in.Fonts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		font := in.Fonts[key]
		for _, ref := range []struct{ field, rel string }{
			{"filename", font.Filename},
			{"symbols", font.Symbols},
		} {
			if ref.rel == "" {
				problems = append(problems, fmt.Sprintf("fonts.%s.%s is empty", key, ref.field))
				continue
			}
			full := filepath.Join(fontsDir, filepath.FromSlash(ref.rel))
			info, err := os.Stat(full)
			switch {
			case err != nil:
				problems = append(problems, fmt.Sprintf("fonts.%s.%s: %s does not exist", key, ref.field, full))
			case info.IsDir():
				problems = append(problems, fmt.Sprintf("fonts.%s.%s: %s is a directory", key, ref.field, full))
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid build inputs:\n  %s", strings.Join(problems, "\n  "))
}

// Check loads and validates the inputs file. It returns (false, nil) when the
// file does not exist, so repositories without one are not affected.
func Check(path, fontsDir string) (bool, error) {
	in, err := Load(path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, in.Validate(fontsDir)
}
