package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"classroll/roster"
)

// Presenter talks to a user over a line-oriented terminal.
type Presenter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPresenter(in io.Reader, out io.Writer) *Presenter {
	return &Presenter{in: bufio.NewScanner(in), out: out}
}

// readLine returns the next input line, or false once input is exhausted.
func (p *Presenter) readLine() (string, bool) {
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// ChooseOneOf lists the options numbered from 1. The user answers with a
// number or the option itself; an empty answer cancels.
func (p *Presenter) ChooseOneOf(prompt string, options []string) (string, bool) {
	fmt.Fprintln(p.out, prompt)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}

	for {
		fmt.Fprint(p.out, "> ")
		answer, ok := p.readLine()
		if !ok || answer == "" {
			return "", false
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		for _, opt := range options {
			if opt == answer {
				return opt, true
			}
		}
		fmt.Fprintln(p.out, "Unknown choice, enter a number or leave empty to cancel.")
	}
}

// PromptText reads one line. An empty line or end of input cancels.
func (p *Presenter) PromptText(prompt string) (string, bool) {
	fmt.Fprint(p.out, prompt+": ")
	answer, ok := p.readLine()
	if !ok || answer == "" {
		return "", false
	}
	return answer, true
}

func (p *Presenter) Notify(title, message string) {
	fmt.Fprintf(p.out, "[%s] %s\n", title, message)
}

func (p *Presenter) Render(snap roster.Snapshot) {
	if !snap.Loaded {
		fmt.Fprintln(p.out, "(no class selected)")
		return
	}
	fmt.Fprintf(p.out, "Class %s, %d students\n", snap.ClassName, len(snap.Students))
	for _, st := range snap.Students {
		fmt.Fprintf(p.out, "%3d  %s  %s\n", st.Number, st.PresenceFlag(), st.Name)
	}
}
