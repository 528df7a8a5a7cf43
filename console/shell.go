package console

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"classroll/roster"
	"classroll/session"
)

// Shell is the interactive command loop of the console mode.
type Shell struct {
	p        *Presenter
	sess     *session.Session
	readFile func(string) ([]byte, error) // mockable
}

func NewShell(p *Presenter, sess *session.Session) *Shell {
	return &Shell{p: p, sess: sess, readFile: os.ReadFile}
}

func (sh *Shell) printUsage() {
	fmt.Fprint(sh.p.out, `Commands:
  list              list classes
  load NAME         load a class
  create [NAME]     create a class
  import PATH       import a .txt or .xlsx roster as a new class
  delete            delete the current class
  add [NAME]        add a student
  remove N          remove student N
  present N         mark student N present
  absent N          mark student N absent
  pick              pick a student
  lucky             draw the lucky number
  show              show the roster
  quit              exit
`)
}

// Run executes the start flow and then reads commands until quit or end of
// input. Command errors are already reported through the presenter and do
// not stop the loop.
func (sh *Shell) Run(ctx context.Context) error {
	if err := sh.sess.Start(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(sh.p.out, "roll> ")
		line, ok := sh.p.readLine()
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		sh.exec(ctx, cmd, arg)
	}
}

func (sh *Shell) exec(ctx context.Context, cmd, arg string) {
	switch cmd {
	case "help":
		sh.printUsage()
	case "list":
		names, err := sh.sess.ListClasses(ctx)
		if err == nil {
			for _, n := range names {
				fmt.Fprintln(sh.p.out, n)
			}
		}
	case "load":
		if arg == "" {
			sh.chooseClass(ctx)
			return
		}
		_ = sh.sess.LoadClass(ctx, arg)
	case "create":
		if arg == "" {
			_ = sh.sess.PromptCreateClass(ctx, "Create a new class!")
			return
		}
		_ = sh.sess.CreateClass(ctx, arg)
	case "import":
		sh.importFile(ctx, arg)
	case "delete":
		_, _ = sh.sess.DeleteClass(ctx)
	case "add":
		if arg == "" {
			_, _, _ = sh.sess.PromptAddStudent(ctx)
			return
		}
		_, _ = sh.sess.AddStudent(ctx, arg)
	case "remove", "present", "absent":
		n, err := strconv.Atoi(arg)
		if err != nil {
			sh.p.Notify("Error", fmt.Sprintf("%s needs a student number", cmd))
			return
		}
		if cmd == "remove" {
			_, _ = sh.sess.RemoveStudent(ctx, n)
		} else {
			_, _ = sh.sess.SetPresence(ctx, n, cmd == "present")
		}
	case "pick":
		_, _ = sh.sess.Pick(ctx)
	case "lucky":
		_, _ = sh.sess.DrawLuckyNumber(ctx)
	case "show":
		sh.p.Render(sh.sess.Snapshot())
		if n, ok := sh.sess.LuckyNumber(); ok {
			fmt.Fprintf(sh.p.out, "Lucky number: %d\n", n)
		}
	default:
		fmt.Fprintf(sh.p.out, "%q: no such command\n", cmd)
		sh.printUsage()
	}
}

func (sh *Shell) chooseClass(ctx context.Context) {
	names, err := sh.sess.ListClasses(ctx)
	if err != nil || len(names) == 0 {
		return
	}
	if name, ok := sh.p.ChooseOneOf("Choose a class", names); ok {
		_ = sh.sess.LoadClass(ctx, name)
	}
}

func (sh *Shell) importFile(ctx context.Context, path string) {
	if path == "" {
		sh.p.Notify("Error", "import needs a file path")
		return
	}
	data, err := sh.readFile(path)
	if err != nil {
		sh.p.Notify("Error", err.Error())
		return
	}

	var report roster.ImportReport
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		report, err = sh.sess.ImportExcel(ctx, path, bytes.NewReader(data))
	} else {
		report, err = sh.sess.ImportClass(ctx, path, string(data))
	}
	if err == nil && report.Skipped > 0 {
		sh.p.Notify("Import", fmt.Sprintf("%d lines were skipped.", report.Skipped))
	}
}
