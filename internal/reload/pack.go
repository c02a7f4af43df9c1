package reload

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	errs "github.com/Iron-Ham/hookbus/internal/errors"
)

// Supported resource formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Resource is one decoded file from a pack.
type Resource struct {
	Path   string // Slash-separated, relative to the pack root
	Format string
	Data   map[string]any
}

// Pack is a directory of YAML and TOML resource files.
type Pack struct {
	fs   afero.Fs
	root string
}

// OpenPack returns the pack rooted at root on fs. It fails with an error
// wrapping ErrPackNotFound if root is not a directory.
func OpenPack(fs afero.Fs, root string) (*Pack, error) {
	ok, err := afero.DirExists(fs, root)
	if err != nil {
		return nil, errs.NewResourceError("failed to stat pack", err).WithPath(root)
	}
	if !ok {
		return nil, errs.NewResourceError("pack directory missing", errs.ErrPackNotFound).WithPath(root)
	}
	return &Pack{fs: fs, root: root}, nil
}

// Root returns the pack directory.
func (p *Pack) Root() string {
	return p.root
}

// List returns the paths of every supported resource in the pack, sorted.
// Hidden files and directories are skipped.
func (p *Pack) List() ([]string, error) {
	var paths []string
	err := afero.Walk(p.fs, p.root, func(full string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if full != p.root && strings.HasPrefix(name, ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if _, err := FormatOf(name); err != nil {
			return nil
		}
		rel, err := filepath.Rel(p.root, full)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errs.NewResourceError("failed to list pack", err).WithPath(p.root)
	}
	sort.Strings(paths)
	return paths, nil
}

// Load reads and decodes one resource by its pack-relative path.
func (p *Pack) Load(rel string) (Resource, error) {
	format, err := FormatOf(rel)
	if err != nil {
		return Resource{}, errs.NewResourceError("cannot load resource", err).WithPath(rel)
	}
	raw, err := afero.ReadFile(p.fs, filepath.Join(p.root, filepath.FromSlash(rel)))
	if err != nil {
		return Resource{}, errs.NewResourceError("failed to read resource", err).WithPath(rel)
	}
	data, err := Decode(format, raw)
	if err != nil {
		return Resource{}, errs.NewResourceError("failed to decode resource", err).WithPath(rel)
	}
	return Resource{Path: rel, Format: format, Data: data}, nil
}

// FormatOf returns the resource format implied by a file extension.
func FormatOf(name string) (string, error) {
	switch strings.ToLower(path.Ext(filepath.ToSlash(name))) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errs.ErrUnsupportedFormat
	}
}

// Decode parses raw as a document of the given format. An empty document
// decodes to an empty map.
func Decode(format string, raw []byte) (map[string]any, error) {
	data := make(map[string]any)
	if len(bytes.TrimSpace(raw)) == 0 {
		return data, nil
	}

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(raw, &data)
	case FormatTOML:
		err = toml.Unmarshal(raw, &data)
	default:
		return nil, errs.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, errs.Join(errs.ErrInvalidResource, err)
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}
