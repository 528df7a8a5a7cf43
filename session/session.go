package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"classroll/catalog"
	"classroll/models"
	"classroll/roster"
	"classroll/selector"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Presenter is the presentation layer the session reports to.
type Presenter interface {
	// ChooseOneOf returns the selected option, or false on cancel.
	ChooseOneOf(prompt string, options []string) (string, bool)
	// PromptText returns the entered text, or false on cancel.
	PromptText(prompt string) (string, bool)
	Notify(title, message string)
	Render(snap roster.Snapshot)
}

// Options tune session behaviour.
type Options struct {
	// ResetLuckyOnLoad clears the lucky number whenever a class is loaded,
	// created or imported. By default it lives for the whole session.
	ResetLuckyOnLoad bool
}

// PickResult is the outcome of one pick attempt.
type PickResult struct {
	Picked  bool            `json:"picked"`
	Student *models.Student `json:"student,omitempty"`
}

// Session holds the single active roster and the selector state. All
// methods are serialized, so concurrent callers such as HTTP handlers never
// touch the store or the backing class at the same time.
type Session struct {
	mu     sync.Mutex
	cat    catalog.Catalog
	store  *roster.Store
	sel    *selector.Selector
	ui     Presenter
	opts   Options
	logger zerolog.Logger
}

// New returns a session with no class loaded. A nil presenter discards
// notifications and renders.
func New(cat catalog.Catalog, sel *selector.Selector, ui Presenter, opts Options, logger zerolog.Logger) *Session {
	if ui == nil {
		ui = nopPresenter{}
	}
	if sel == nil {
		sel = selector.New(nil)
	}
	return &Session{
		cat:    cat,
		store:  roster.NewStore(cat),
		sel:    sel,
		ui:     ui,
		opts:   opts,
		logger: logger,
	}
}

// Start runs the opening flow: choose an existing class, or ask for a new
// one when the catalog is empty. Cancelling leaves the session unloaded.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.cat.ListClasses(ctx)
	if err != nil {
		return s.fail(err)
	}
	if len(names) == 0 {
		return s.promptCreateClass(ctx, "No class found!")
	}

	name, ok := s.ui.ChooseOneOf("Choose a class", names)
	if !ok || name == "" {
		return nil
	}
	return s.loadClass(ctx, name)
}

func (s *Session) ListClasses(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.cat.ListClasses(ctx)
	if err != nil {
		return nil, s.fail(err)
	}
	return names, nil
}

func (s *Session) LoadClass(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadClass(ctx, name)
}

func (s *Session) loadClass(ctx context.Context, name string) error {
	store, report, err := catalog.Load(ctx, s.cat, name)
	if err != nil {
		return s.fail(err)
	}
	if report.Renumbered > 0 {
		s.logger.Warn().Str("class", name).Int("renumbered", report.Renumbered).Msg("Roster numbers were out of sequence")
	}
	if report.Skipped > 0 {
		s.logger.Warn().Str("class", name).Int("skipped", report.Skipped).Msg("Skipped short roster lines")
	}

	s.switchTo(store)
	s.logger.Info().Str("class", name).Int("students", store.Count()).Msg("Class loaded")
	return nil
}

func (s *Session) CreateClass(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createClass(ctx, name)
}

// PromptCreateClass asks the presenter for a class name and creates it.
// Cancelling or entering nothing is not an error.
func (s *Session) PromptCreateClass(ctx context.Context, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promptCreateClass(ctx, prompt)
}

func (s *Session) promptCreateClass(ctx context.Context, prompt string) error {
	name, ok := s.ui.PromptText(prompt + " Enter the name of the new class")
	if !ok || strings.TrimSpace(name) == "" {
		return nil
	}
	return s.createClass(ctx, name)
}

func (s *Session) createClass(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := s.cat.CreateClass(ctx, name); err != nil {
		return s.fail(err)
	}

	store := roster.NewStore(s.cat)
	if err := store.Create(ctx, name); err != nil {
		return s.fail(err)
	}
	s.switchTo(store)
	return nil
}

// ImportClass creates a class named after fileName from import text. The
// currently loaded class is left as it is on disk.
func (s *Session) ImportClass(ctx context.Context, fileName, raw string) (roster.ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := catalog.ClassNameFromFile(fileName)
	store, report, err := catalog.Import(ctx, s.cat, name, raw)
	if err != nil {
		return report, s.fail(err)
	}
	s.finishImport(store, report)
	return report, nil
}

// ImportExcel is ImportClass for a workbook upload.
func (s *Session) ImportExcel(ctx context.Context, fileName string, r io.Reader) (roster.ImportReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := catalog.ClassNameFromFile(fileName)
	store, report, err := catalog.ImportExcel(ctx, s.cat, name, r)
	if err != nil {
		return report, s.fail(err)
	}
	s.finishImport(store, report)
	return report, nil
}

func (s *Session) finishImport(store *roster.Store, report roster.ImportReport) {
	s.logger.Info().
		Str("class", store.ClassName()).
		Int("accepted", report.Accepted).
		Int("skipped", report.Skipped).
		Msg("Class imported")
	s.switchTo(store)
}

// DeleteClass removes the backing record of the active class and unloads it.
func (s *Session) DeleteClass(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Phase() != roster.Loaded {
		return "", s.fail(models.ErrNoActiveClass)
	}
	name := s.store.ClassName()
	if err := s.cat.DeleteClass(ctx, name); err != nil {
		return "", s.fail(err)
	}

	s.store = roster.NewStore(s.cat)
	s.ui.Render(s.store.Snapshot())
	s.ui.Notify("Success", fmt.Sprintf("Class '%s' was deleted.", name))
	return name, nil
}

func (s *Session) AddStudent(ctx context.Context, name string) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addStudent(ctx, name)
}

// PromptAddStudent asks the presenter for a name and adds the student.
// It returns false when the prompt was cancelled or left empty.
func (s *Session) PromptAddStudent(ctx context.Context) (models.Student, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Phase() != roster.Loaded {
		return models.Student{}, false, s.fail(models.ErrNoActiveClass)
	}
	name, ok := s.ui.PromptText("Enter the student's name")
	if !ok || strings.TrimSpace(name) == "" {
		return models.Student{}, false, nil
	}
	st, err := s.addStudent(ctx, name)
	return st, err == nil, err
}

func (s *Session) addStudent(ctx context.Context, name string) (models.Student, error) {
	st, err := s.store.AddStudent(ctx, name)
	if err != nil {
		return st, s.fail(err)
	}
	s.ui.Render(s.store.Snapshot())
	return st, nil
}

func (s *Session) RemoveStudent(ctx context.Context, number int) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.RemoveStudent(ctx, number)
	if err != nil {
		return st, s.fail(err)
	}
	s.ui.Render(s.store.Snapshot())
	return st, nil
}

func (s *Session) SetPresence(ctx context.Context, number int, present bool) (models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.SetPresence(ctx, number, present)
	if err != nil {
		return st, s.fail(err)
	}
	s.ui.Render(s.store.Snapshot())
	return st, nil
}

// Pick runs one selection attempt against the active roster. Finding nobody
// eligible is a normal result, not an error.
func (s *Session) Pick(ctx context.Context) (PickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Phase() != roster.Loaded || s.store.Count() == 0 {
		s.ui.Notify("No students", "Add students to the class before picking.")
		return PickResult{}, models.ErrNoStudents
	}

	chosen, ok := s.sel.Pick(s.store.Members())
	if !ok {
		s.ui.Notify("No eligible students", "None of the students meet the requirements to be picked.")
		return PickResult{}, nil
	}

	picked := *chosen
	s.logger.Debug().Str("class", s.store.ClassName()).Int("number", picked.Number).Msg("Student picked")
	s.ui.Notify("Picked student", picked.Name)
	return PickResult{Picked: true, Student: &picked}, nil
}

// DrawLuckyNumber draws a number over the active roster and excludes it
// from picks.
func (s *Session) DrawLuckyNumber(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Phase() != roster.Loaded {
		return 0, s.fail(models.ErrNoActiveClass)
	}
	n, err := s.sel.DrawLuckyNumber(s.store.Count())
	if err != nil {
		return 0, s.fail(err)
	}
	s.ui.Notify("Lucky number", fmt.Sprintf("Lucky number: %d", n))
	return n, nil
}

func (s *Session) LuckyNumber() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.LuckyNumber()
}

func (s *Session) Snapshot() roster.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

func (s *Session) switchTo(store *roster.Store) {
	s.store = store
	if s.opts.ResetLuckyOnLoad {
		s.sel.ClearLuckyNumber()
	}
	s.ui.Render(s.store.Snapshot())
}

// fail reports err to the presenter and returns it unchanged.
func (s *Session) fail(err error) error {
	s.logger.Error().Err(err).Msg("Operation failed")
	s.ui.Notify("Error", Message(err))
	return err
}

// Message turns an error into the text shown to the user.
func Message(err error) string {
	switch {
	case errors.Is(err, models.ErrNoActiveClass):
		return "No class is selected, choose a class first."
	case errors.Is(err, models.ErrAlreadyExists):
		return fmt.Sprintf("Class already exists (%v).", err)
	case errors.Is(err, models.ErrNotFound):
		return fmt.Sprintf("Does not exist (%v).", err)
	case errors.Is(err, models.ErrEmptyName):
		return "The name cannot be empty."
	case errors.Is(err, models.ErrInvalidName):
		return "Student names cannot contain commas or line breaks."
	case errors.Is(err, models.ErrInvalidClassName):
		return fmt.Sprintf("Invalid class name (%v).", err)
	case errors.Is(err, models.ErrNoStudents):
		return "Add students to the class first."
	case models.IsParse(err):
		return fmt.Sprintf("The class file is malformed: %v", err)
	case models.IsPersistence(err):
		return fmt.Sprintf("Could not access class storage: %v", err)
	default:
		return fmt.Sprintf("An error occurred: %v", err)
	}
}

type nopPresenter struct{}

func (nopPresenter) ChooseOneOf(string, []string) (string, bool) { return "", false }
func (nopPresenter) PromptText(string) (string, bool) { return "", false }
func (nopPresenter) Notify(string, string) {}
func (nopPresenter) Render(roster.Snapshot) {}
