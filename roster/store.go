package roster

import (
	"context"
	"strconv"
	"strings"

	"classroll/models"

	"github.com/pkg/errors"
)

// Phase tags whether a Store currently holds a class.
type Phase int

const (
	Unloaded Phase = iota
	Loaded
)

func (p Phase) String() string {
	if p == Loaded {
		return "loaded"
	}
	return "unloaded"
}

// Sink receives the serialized roster of a class.
type Sink interface {
	SaveClass(ctx context.Context, className string, lines []string) error
}

// Store owns the authoritative student list of the active class.
// It has no internal locking; callers serialize access.
type Store struct {
	phase     Phase
	className string
	students  []*models.Student
	sink      Sink
}

// Snapshot is a value copy of a Store.
type Snapshot struct {
	ClassName string           `json:"className"`
	Loaded    bool             `json:"loaded"`
	Students  []models.Student `json:"students"`
}

// LoadReport describes adjustments made while loading persisted lines.
type LoadReport struct {
	Skipped    int // lines with fewer than two fields
	Renumbered int // students whose stored number did not match their position
}

// NewStore returns an Unloaded store writing through sink. A nil sink keeps
// the roster in memory only.
func NewStore(sink Sink) *Store {
	return &Store{sink: sink}
}

func (s *Store) Phase() Phase { return s.phase }
func (s *Store) ClassName() string { return s.className }
func (s *Store) Count() int { return len(s.students) }

// LoadFromLines replaces the store contents with the parsed roster lines.
// A malformed number fails the whole load and leaves the store untouched.
func (s *Store) LoadFromLines(className string, lines []string) (*LoadReport, error) {
	report := &LoadReport{}
	students := make([]*models.Student, 0, len(lines))

	for i, line := range lines {
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			report.Skipped++
			continue
		}

		number, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, &models.ParseError{Line: i + 1, Text: line, Err: err}
		}

		present := len(parts) > 2 && strings.TrimSpace(parts[2]) == "+"
		students = append(students, &models.Student{
			Number:    number,
			Name:      strings.TrimSpace(parts[1]),
			IsPresent: present,
		})
	}

	for i, st := range students {
		if st.Number != i+1 {
			st.Number = i + 1
			report.Renumbered++
		}
	}

	s.phase = Loaded
	s.className = className
	s.students = students
	return report, nil
}

// Create switches the store to a new, empty class and persists it.
func (s *Store) Create(ctx context.Context, className string) error {
	s.phase = Loaded
	s.className = className
	s.students = nil
	return s.sync(ctx)
}

// Unload drops the active class.
func (s *Store) Unload() {
	s.phase = Unloaded
	s.className = ""
	s.students = nil
}

// AddStudent appends a present student numbered after the current last one.
// A failed save leaves the roster as it was.
func (s *Store) AddStudent(ctx context.Context, name string) (models.Student, error) {
	if s.phase != Loaded {
		return models.Student{}, models.ErrNoActiveClass
	}
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return models.Student{}, err
	}

	st := &models.Student{Number: len(s.students) + 1, Name: name, IsPresent: true}
	s.students = append(s.students, st)
	if err := s.sync(ctx); err != nil {
		s.students = s.students[:len(s.students)-1]
		return models.Student{}, err
	}
	return *st, nil
}

// ValidateName rejects names the line format cannot store.
func ValidateName(name string) error {
	switch {
	case name == "":
		return models.ErrEmptyName
	case strings.ContainsAny(name, ",\r\n"):
		return errors.Wrapf(models.ErrInvalidName, "%q contains a comma or line break", name)
	}
	return nil
}

// RemoveStudent deletes the student with the given number and renumbers
// everyone after it.
func (s *Store) RemoveStudent(ctx context.Context, number int) (models.Student, error) {
	idx, err := s.index(number)
	if err != nil {
		return models.Student{}, err
	}

	prev := append([]*models.Student(nil), s.students...)
	removed := *s.students[idx]
	s.students = append(s.students[:idx], s.students[idx+1:]...)
	s.renumber()
	if err := s.sync(ctx); err != nil {
		s.students = prev
		s.renumber()
		return models.Student{}, err
	}
	return removed, nil
}

func (s *Store) SetPresence(ctx context.Context, number int, present bool) (models.Student, error) {
	idx, err := s.index(number)
	if err != nil {
		return models.Student{}, err
	}
	st := s.students[idx]
	was := st.IsPresent
	st.IsPresent = present
	if err := s.sync(ctx); err != nil {
		st.IsPresent = was
		return models.Student{}, err
	}
	return *st, nil
}

// Serialize renders the roster in the persisted line format.
func (s *Store) Serialize() []string {
	lines := make([]string, 0, len(s.students))
	for _, st := range s.students {
		lines = append(lines, strconv.Itoa(st.Number)+","+st.Name+","+st.PresenceFlag())
	}
	return lines
}

// Persist writes the serialized roster of the active class to sink.
func (s *Store) Persist(ctx context.Context, sink Sink) error {
	if s.phase != Loaded {
		return models.ErrNoActiveClass
	}
	if err := sink.SaveClass(ctx, s.className, s.Serialize()); err != nil {
		if models.IsPersistence(err) {
			return err
		}
		return &models.PersistenceError{Op: "save", Class: s.className, Err: err}
	}
	return nil
}

func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		ClassName: s.className,
		Loaded:    s.phase == Loaded,
		Students:  make([]models.Student, 0, len(s.students)),
	}
	for _, st := range s.students {
		snap.Students = append(snap.Students, *st)
	}
	return snap
}

// Members exposes the live students so the selector can update cooldowns.
// Callers must not reorder or resize the slice.
func (s *Store) Members() []*models.Student {
	return s.students
}

func (s *Store) index(number int) (int, error) {
	if s.phase != Loaded {
		return 0, models.ErrNoActiveClass
	}
	if number < 1 || number > len(s.students) {
		return 0, errors.Wrapf(models.ErrNotFound, "student #%d", number)
	}
	return number - 1, nil
}

func (s *Store) renumber() {
	for i, st := range s.students {
		st.Number = i + 1
	}
}

func (s *Store) sync(ctx context.Context) error {
	if s.sink == nil {
		return nil
	}
	return s.Persist(ctx, s.sink)
}
