package session

import (
	"context"
	"path/filepath"
	"testing"

	"classroll/catalog"
	"classroll/models"
	"classroll/roster"
	"classroll/selector"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notice struct{ title, message string }

type fakePresenter struct {
	choice  string
	text    string
	cancel  bool
	prompts []string
	options []string
	notices []notice
	renders []roster.Snapshot
}

func (p *fakePresenter) ChooseOneOf(prompt string, options []string) (string, bool) {
	p.prompts = append(p.prompts, prompt)
	p.options = options
	return p.choice, !p.cancel
}

func (p *fakePresenter) PromptText(prompt string) (string, bool) {
	p.prompts = append(p.prompts, prompt)
	return p.text, !p.cancel
}

func (p *fakePresenter) Notify(title, message string) {
	p.notices = append(p.notices, notice{title, message})
}

func (p *fakePresenter) Render(snap roster.Snapshot) {
	p.renders = append(p.renders, snap)
}

func (p *fakePresenter) lastNotice() notice {
	if len(p.notices) == 0 {
		return notice{}
	}
	return p.notices[len(p.notices)-1]
}

// firstRand always picks the first member of the pool.
type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

func setup(t *testing.T, opts Options) (*Session, *fakePresenter, *catalog.FileCatalog) {
	t.Helper()
	cat := catalog.NewFileCatalog(filepath.Join(t.TempDir(), "Classes"), true, zerolog.Nop())
	ui := &fakePresenter{}
	return New(cat, selector.New(firstRand{}), ui, opts, zerolog.Nop()), ui, cat
}

func TestStartWithoutClassesPromptsForNew(t *testing.T) {
	s, ui, cat := setup(t, Options{})
	ui.text = "1A"

	require.NoError(t, s.Start(context.Background()))

	assert.Contains(t, ui.prompts[0], "No class found!")
	snap := s.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, "1A", snap.ClassName)

	exists, err := cat.ClassExists(context.Background(), "1A")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStartChoosesClass(t *testing.T) {
	s, ui, cat := setup(t, Options{})
	ctx := context.Background()
	require.NoError(t, cat.CreateClass(ctx, "1A"))
	require.NoError(t, cat.CreateClass(ctx, "2B"))
	require.NoError(t, cat.SaveClass(ctx, "2B", []string{"1,Ann,+", "2,Bob,-"}))
	ui.choice = "2B"

	require.NoError(t, s.Start(ctx))

	assert.Equal(t, []string{"1A", "2B"}, ui.options)
	snap := s.Snapshot()
	assert.Equal(t, "2B", snap.ClassName)
	assert.Len(t, snap.Students, 2)
	require.NotEmpty(t, ui.renders)
}

func TestStartCancelled(t *testing.T) {
	s, ui, cat := setup(t, Options{})
	require.NoError(t, cat.CreateClass(context.Background(), "1A"))
	ui.cancel = true

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.Snapshot().Loaded)
}

func TestMutationsRenderAndPersist(t *testing.T) {
	s, ui, cat := setup(t, Options{})
	ctx := context.Background()
	require.NoError(t, s.CreateClass(ctx, "3C"))

	for _, name := range []string{"A", "B", "C"} {
		_, err := s.AddStudent(ctx, name)
		require.NoError(t, err)
	}
	removed, err := s.RemoveStudent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", removed.Name)
	_, err = s.SetPresence(ctx, 2, false)
	require.NoError(t, err)

	// create + 3 adds + remove + presence
	assert.Len(t, ui.renders, 6)
	last := ui.renders[len(ui.renders)-1]
	assert.Equal(t, []models.Student{
		{Number: 1, Name: "A", IsPresent: true},
		{Number: 2, Name: "C", IsPresent: false},
	}, last.Students)

	lines, err := cat.ReadClass(ctx, "3C")
	require.NoError(t, err)
	assert.Equal(t, []string{"1,A,+", "2,C,-"}, lines)
}

func TestAddStudentWithoutClass(t *testing.T) {
	s, ui, _ := setup(t, Options{})

	_, err := s.AddStudent(context.Background(), "Ann")
	assert.ErrorIs(t, err, models.ErrNoActiveClass)
	assert.Equal(t, "Error", ui.lastNotice().title)

	_, added, err := s.PromptAddStudent(context.Background())
	assert.ErrorIs(t, err, models.ErrNoActiveClass)
	assert.False(t, added)
}

func TestPromptAddStudent(t *testing.T) {
	s, ui, _ := setup(t, Options{})
	ctx := context.Background()
	require.NoError(t, s.CreateClass(ctx, "3C"))

	ui.text = "Dora"
	st, added, err := s.PromptAddStudent(ctx)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, st.Number)

	ui.cancel = true
	_, added, err = s.PromptAddStudent(ctx)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestPick(t *testing.T) {
	s, ui, _ := setup(t, Options{})
	ctx := context.Background()

	_, err := s.Pick(ctx)
	assert.ErrorIs(t, err, models.ErrNoStudents)

	require.NoError(t, s.CreateClass(ctx, "4D"))
	_, err = s.Pick(ctx)
	assert.ErrorIs(t, err, models.ErrNoStudents)

	for _, name := range []string{"Ann", "Bob"} {
		_, err := s.AddStudent(ctx, name)
		require.NoError(t, err)
	}

	res, err := s.Pick(ctx)
	require.NoError(t, err)
	require.True(t, res.Picked)
	assert.Equal(t, "Ann", res.Student.Name)
	assert.Equal(t, selector.Cooldown, res.Student.Cooldown)
	assert.Equal(t, notice{"Picked student", "Ann"}, ui.lastNotice())

	res, err = s.Pick(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bob", res.Student.Name)

	// both cooling down
	res, err = s.Pick(ctx)
	require.NoError(t, err)
	assert.False(t, res.Picked)
	assert.Equal(t, "No eligible students", ui.lastNotice().title)
}

func TestLuckyNumberExcludedFromPick(t *testing.T) {
	s, _, _ := setup(t, Options{})
	ctx := context.Background()
	require.NoError(t, s.CreateClass(ctx, "5E"))
	_, err := s.AddStudent(ctx, "Solo")
	require.NoError(t, err)

	n, err := s.DrawLuckyNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := s.Pick(ctx)
	require.NoError(t, err)
	assert.False(t, res.Picked)
}

func TestLuckyNumberScope(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantLucky bool
	}{
		{name: "session scoped", opts: Options{}, wantLucky: true},
		{name: "reset on load", opts: Options{ResetLuckyOnLoad: true}, wantLucky: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := setup(t, tt.opts)
			ctx := context.Background()
			require.NoError(t, s.CreateClass(ctx, "6F"))
			_, err := s.AddStudent(ctx, "Ann")
			require.NoError(t, err)
			_, err = s.DrawLuckyNumber(ctx)
			require.NoError(t, err)

			require.NoError(t, s.CreateClass(ctx, "7G"))
			_, ok := s.LuckyNumber()
			assert.Equal(t, tt.wantLucky, ok)
		})
	}
}

func TestDrawLuckyNumberErrors(t *testing.T) {
	s, _, _ := setup(t, Options{})
	ctx := context.Background()

	_, err := s.DrawLuckyNumber(ctx)
	assert.ErrorIs(t, err, models.ErrNoActiveClass)

	require.NoError(t, s.CreateClass(ctx, "8H"))
	_, err = s.DrawLuckyNumber(ctx)
	assert.ErrorIs(t, err, models.ErrNoStudents)
}

func TestImportClass(t *testing.T) {
	s, _, cat := setup(t, Options{})
	ctx := context.Background()
	require.NoError(t, s.CreateClass(ctx, "old"))
	_, err := s.AddStudent(ctx, "Keep")
	require.NoError(t, err)

	report, err := s.ImportClass(ctx, "/tmp/new.txt", "Alice,+\n5Bob,-\nCleo,*\n")
	require.NoError(t, err)
	assert.Equal(t, roster.ImportReport{Accepted: 1, Skipped: 2}, report)

	snap := s.Snapshot()
	assert.Equal(t, "new", snap.ClassName)
	assert.Equal(t, []models.Student{{Number: 1, Name: "Alice", IsPresent: true}}, snap.Students)

	lines, err := cat.ReadClass(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, []string{"1,Keep,+"}, lines)

	_, err = s.ImportClass(ctx, "old.txt", "Zed,+\n")
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
	assert.Equal(t, "new", s.Snapshot().ClassName)
}

func TestDeleteClass(t *testing.T) {
	s, ui, cat := setup(t, Options{})
	ctx := context.Background()

	_, err := s.DeleteClass(ctx)
	assert.ErrorIs(t, err, models.ErrNoActiveClass)

	require.NoError(t, s.CreateClass(ctx, "9I"))
	name, err := s.DeleteClass(ctx)
	require.NoError(t, err)
	assert.Equal(t, "9I", name)
	assert.False(t, s.Snapshot().Loaded)
	assert.Equal(t, "Success", ui.lastNotice().title)

	exists, err := cat.ClassExists(ctx, "9I")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoadMissingClass(t *testing.T) {
	s, _, _ := setup(t, Options{})

	err := s.LoadClass(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, s.Snapshot().Loaded)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "No class is selected, choose a class first.", Message(models.ErrNoActiveClass))
	assert.Contains(t, Message(&models.PersistenceError{Op: "save", Class: "x", Err: assert.AnError}), "Could not access class storage")
	assert.Contains(t, Message(&models.ParseError{Line: 1, Text: "x", Err: assert.AnError}), "malformed")
}
