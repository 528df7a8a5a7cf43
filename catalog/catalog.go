package catalog

import (
	"context"
	"path/filepath"
	"strings"

	"classroll/models"
	"classroll/roster"

	"github.com/pkg/errors"
)

// Catalog enumerates persisted classes and reads and writes their rosters.
type Catalog interface {
	roster.Sink

	ListClasses(ctx context.Context) ([]string, error)
	ClassExists(ctx context.Context, name string) (bool, error)
	CreateClass(ctx context.Context, name string) error
	DeleteClass(ctx context.Context, name string) error
	ReadClass(ctx context.Context, name string) ([]string, error)
}

// ValidateClassName rejects names that cannot be used as a backing record key.
func ValidateClassName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return errors.Wrap(models.ErrInvalidClassName, "empty name")
	case trimmed == "." || trimmed == "..":
		return errors.Wrapf(models.ErrInvalidClassName, "%q", name)
	case strings.ContainsAny(trimmed, `/\`):
		return errors.Wrapf(models.ErrInvalidClassName, "%q contains a path separator", name)
	}
	return nil
}

// ClassNameFromFile derives a class name from an uploaded or picked file.
func ClassNameFromFile(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads the named class into a new store bound to cat.
func Load(ctx context.Context, cat Catalog, name string) (*roster.Store, *roster.LoadReport, error) {
	lines, err := cat.ReadClass(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	store := roster.NewStore(cat)
	report, err := store.LoadFromLines(name, lines)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load class %q", name)
	}
	return store, report, nil
}

// Import creates className from text in the external "name,+|-" format and
// returns it loaded. An existing class with the same name is never touched.
func Import(ctx context.Context, cat Catalog, className, raw string) (*roster.Store, roster.ImportReport, error) {
	students, report := roster.ParseImport(raw)
	store, err := importStudents(ctx, cat, className, students)
	return store, report, err
}

func importStudents(ctx context.Context, cat Catalog, className string, students []models.Student) (*roster.Store, error) {
	if err := ValidateClassName(className); err != nil {
		return nil, err
	}
	exists, err := cat.ClassExists(ctx, className)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Wrapf(models.ErrAlreadyExists, "class %q", className)
	}
	if err := cat.CreateClass(ctx, className); err != nil {
		return nil, err
	}

	store := roster.NewStore(cat)
	store.LoadStudents(className, students)
	if err := store.Persist(ctx, cat); err != nil {
		// best effort, the save error is the one reported
		_ = cat.DeleteClass(ctx, className)
		return nil, err
	}
	return store, nil
}
