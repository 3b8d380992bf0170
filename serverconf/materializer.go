package serverconf

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pushstream/contract-tests/framework"
)

const mimeTypesFileName = "mime.types"

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Materializer writes rendered configuration files into a scratch directory.
type Materializer struct {
	dir       string
	templates *Templates
	logger    framework.Logger
}

// RenderedConfig is a configuration file and its mime type table, as written to disk.
type RenderedConfig struct {
	ConfigPath    string
	MimeTypesPath string
	Text          string
}

// ConfigWriteError means a rendered file could not be written.
type ConfigWriteError struct {
	Path string
	Err  error
}

func (e *ConfigWriteError) Error() string {
	return fmt.Sprintf("could not write configuration file %s: %s", e.Path, e.Err)
}

func (e *ConfigWriteError) Unwrap() error {
	return e.Err
}

func NewMaterializer(dir string, templates *Templates, logger framework.Logger) *Materializer {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Materializer{dir: dir, templates: templates, logger: logger}
}

// ConfigPath is the location of the configuration file for a test. The same test identifier
// always maps to the same path. The name is the identifier with unsafe characters replaced,
// followed by a hash of the identifier itself, so identifiers that differ only in those
// characters still get different files.
func (m *Materializer) ConfigPath(testID string) string {
	name := unsafeFileNameChars.ReplaceAllString(testID, "_")
	if name == "" {
		name = "default"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(testID))
	return filepath.Join(m.dir, fmt.Sprintf("%s_%08x.conf", name, h.Sum32()))
}

// MimeTypesPath is the location of the mime type table, which the configuration file
// includes by relative name.
func (m *Materializer) MimeTypesPath() string {
	return filepath.Join(m.dir, mimeTypesFileName)
}

// Materialize renders the configuration and writes it, along with the mime type table, to
// the paths for the given test. An existing file at either path is replaced.
func (m *Materializer) Materialize(testID string, c Configuration) (RenderedConfig, error) {
	text, err := m.templates.Render(c)
	if err != nil {
		return RenderedConfig{}, err
	}
	r := RenderedConfig{
		ConfigPath:    m.ConfigPath(testID),
		MimeTypesPath: m.MimeTypesPath(),
		Text:          text,
	}
	if err := os.WriteFile(r.ConfigPath, []byte(text), 0o644); err != nil {
		return RenderedConfig{}, &ConfigWriteError{Path: r.ConfigPath, Err: err}
	}
	if err := os.WriteFile(r.MimeTypesPath, []byte(m.templates.MimeTypes()), 0o644); err != nil {
		_ = os.Remove(r.ConfigPath)
		return RenderedConfig{}, &ConfigWriteError{Path: r.MimeTypesPath, Err: err}
	}
	m.logger.Printf("Wrote configuration to %s", r.ConfigPath)
	return r, nil
}

// Remove deletes both files. Files that are already gone are not an error.
func (r RenderedConfig) Remove() error {
	for _, path := range []string{r.ConfigPath, r.MimeTypesPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("could not delete %s: %w", path, err)
		}
	}
	return nil
}
