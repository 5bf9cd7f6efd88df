// Package artifact collects the build output set that becomes release assets.
package artifact

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoOutputDir indicates the output directory does not exist.
var ErrNoOutputDir = errors.New("output directory does not exist")

// DefaultContentType is used for files with an unknown extension.
const DefaultContentType = "application/octet-stream"

// fontTypes covers extensions missing from the stdlib mime table.
var fontTypes = map[string]string{
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".sfd":   "application/vnd.font-fontforge-sfd",
	".txt":   "text/plain; charset=utf-8",
	".md":    "text/markdown; charset=utf-8",
}

// Asset is one file of the build output set.
type Asset struct {
	// Name is the upload name: the file's base name.
	Name string `yaml:"name"`

	// Path is the file's location on disk.
	Path string `yaml:"path"`

	// Size is the file size in bytes.
	Size int64 `yaml:"size"`

	// ContentType is derived from the extension.
	ContentType string `yaml:"content_type"`

	// MD5 is the hex-encoded MD5 digest of the contents.
	MD5 string `yaml:"md5"`
}

// Collect returns the regular files under dir matching any of patterns.
//
// Patterns use doublestar syntax relative to dir; "*" selects every top-level
// file and "**" every file at any depth. Directories are never returned.
// The result is sorted by relative path. An existing but empty directory
// yields an empty, non-nil slice. Two matches sharing a base name are an
// error because release asset names must be unique.
func Collect(dir string, patterns []string) ([]Asset, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoOutputDir, dir)
		}
		return nil, fmt.Errorf("failed to stat output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output path %s is not a directory", dir)
	}

	fsys := os.DirFS(dir)
	seen := make(map[string]bool)
	var matches []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
		found, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to match %q: %w", pattern, err)
		}
		for _, rel := range found {
			if !seen[rel] {
				seen[rel] = true
				matches = append(matches, rel)
			}
		}
	}
	sort.Strings(matches)

	assets := make([]Asset, 0, len(matches))
	names := make(map[string]string, len(matches))
	for _, rel := range matches {
		name := path.Base(rel)
		if prev, dup := names[name]; dup {
			return nil, fmt.Errorf("asset name %q is used by both %s and %s", name, prev, rel)
		}
		names[name] = rel

		asset, err := Describe(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// Describe builds the [Asset] for a single file.
func Describe(filePath string) (Asset, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to open asset: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Asset{}, fmt.Errorf("failed to stat asset: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Asset{}, fmt.Errorf("asset %s is not a regular file", filePath)
	}

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return Asset{}, fmt.Errorf("failed to hash asset: %w", err)
	}

	return Asset{
		Name:        filepath.Base(filePath),
		Path:        filePath,
		Size:        info.Size(),
		ContentType: ContentType(filePath),
		MD5:         hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// ContentType returns the MIME type for a file name.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := fontTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return DefaultContentType
}
