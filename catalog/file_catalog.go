package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"classroll/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const classExt = ".txt"

// FileCatalog keeps one "<name>.txt" roster file per class in a directory.
type FileCatalog struct {
	dir       string
	sortNames bool
	logger    zerolog.Logger
}

// NewFileCatalog returns a catalog rooted at dir. The directory is created
// lazily on first listing. Listing keeps directory enumeration order unless
// sortNames is set.
func NewFileCatalog(dir string, sortNames bool, logger zerolog.Logger) *FileCatalog {
	return &FileCatalog{dir: dir, sortNames: sortNames, logger: logger}
}

func (c *FileCatalog) Dir() string { return c.dir }

// path returns the file backing name. An existing file listed under a
// differently cased extension, such as "2B.TXT", keeps its own name.
func (c *FileCatalog) path(name string) string {
	p := filepath.Join(c.dir, name+classExt)
	if _, err := os.Stat(p); err == nil {
		return p
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return p
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && strings.EqualFold(ext, classExt) && strings.TrimSuffix(e.Name(), ext) == name {
			return filepath.Join(c.dir, e.Name())
		}
	}
	return p
}

func (c *FileCatalog) ListClasses(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, &models.PersistenceError{Op: "list", Err: err}
	}

	d, err := os.Open(c.dir)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list", Err: err}
	}
	defer d.Close()

	// File.ReadDir does not sort, unlike os.ReadDir.
	entries, err := d.ReadDir(-1)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list", Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !strings.EqualFold(ext, classExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	if c.sortNames {
		sort.Strings(names)
	}
	return names, nil
}

func (c *FileCatalog) ClassExists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(c.path(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, &models.PersistenceError{Op: "stat", Class: name, Err: err}
	}
}

func (c *FileCatalog) CreateClass(ctx context.Context, name string) error {
	if err := ValidateClassName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return &models.PersistenceError{Op: "create", Class: name, Err: err}
	}

	f, err := os.OpenFile(c.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errors.Wrapf(models.ErrAlreadyExists, "class %q", name)
		}
		return &models.PersistenceError{Op: "create", Class: name, Err: err}
	}
	if err := f.Close(); err != nil {
		return &models.PersistenceError{Op: "create", Class: name, Err: err}
	}
	c.logger.Info().Str("class", name).Msg("Class created")
	return nil
}

func (c *FileCatalog) DeleteClass(ctx context.Context, name string) error {
	if err := os.Remove(c.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(models.ErrNotFound, "class %q", name)
		}
		return &models.PersistenceError{Op: "delete", Class: name, Err: err}
	}
	c.logger.Info().Str("class", name).Msg("Class deleted")
	return nil
}

func (c *FileCatalog) ReadClass(ctx context.Context, name string) ([]string, error) {
	data, err := os.ReadFile(c.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(models.ErrNotFound, "class %q", name)
		}
		return nil, &models.PersistenceError{Op: "read", Class: name, Err: err}
	}
	return splitLines(string(data)), nil
}

// SaveClass replaces the class file with lines, going through a temporary
// file so a failed write never truncates the previous roster.
func (c *FileCatalog) SaveClass(ctx context.Context, name string, lines []string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return &models.PersistenceError{Op: "save", Class: name, Err: err}
	}

	tmp, err := os.CreateTemp(c.dir, "."+name+"-*.tmp")
	if err != nil {
		return &models.PersistenceError{Op: "save", Class: name, Err: err}
	}
	defer os.Remove(tmp.Name())

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		return &models.PersistenceError{Op: "save", Class: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &models.PersistenceError{Op: "save", Class: name, Err: err}
	}
	if err := os.Rename(tmp.Name(), c.path(name)); err != nil {
		return &models.PersistenceError{Op: "save", Class: name, Err: err}
	}

	c.logger.Debug().Str("class", name).Int("students", len(lines)).Msg("Roster saved")
	return nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
