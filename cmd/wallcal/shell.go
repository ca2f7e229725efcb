package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wallcal/internal/calendar"
)

const welcomeMessage = `**********************************************
  Welcome to the Command Line Calendar
**********************************************
  view events     View all calendar events
  view event      View a specific event
  insert event    Insert an event
  delete event    Delete an event
  update event    Update an event
  exit            Exit the calendar

Follow the prompts after each command.

`

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive calendar prompt",
	RunE:  runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		sh := newShell(a.store, a.loc, scanReader{sc: bufio.NewScanner(os.Stdin), out: os.Stdout}, os.Stdout)
		return sh.run()
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("terminal raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "")
	return newShell(a.store, a.loc, termReader{t: t}, t).run()
}

// lineReader reads one line of input after showing prompt.
type lineReader interface {
	ReadLine(prompt string) (string, error)
}

// termReader reads from a raw-mode terminal with line editing and history.
type termReader struct {
	t *term.Terminal
}

func (r termReader) ReadLine(prompt string) (string, error) {
	r.t.SetPrompt(prompt)
	return r.t.ReadLine()
}

// scanReader reads from a pipe or file.
type scanReader struct {
	sc  *bufio.Scanner
	out io.Writer
}

func (r scanReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

// shell is the prompt loop. It only parses input; every calendar rule
// lives in the store.
type shell struct {
	store *calendar.Store
	loc   *time.Location
	in    lineReader
	out   io.Writer
}

func newShell(store *calendar.Store, loc *time.Location, in lineReader, out io.Writer) *shell {
	return &shell{store: store, loc: loc, in: in, out: out}
}

// run loops until "exit" or end of input.
func (sh *shell) run() error {
	fmt.Fprint(sh.out, welcomeMessage)

	for {
		line, err := sh.in.ReadLine(">>> ")
		if err != nil {
			return endOfInput(err)
		}

		fields := strings.Fields(strings.ToLower(line))
		switch {
		case len(fields) == 0:
			continue
		case len(fields) == 1 && fields[0] == "exit":
			return nil
		case len(fields) == 1 && fields[0] == "help":
			fmt.Fprint(sh.out, welcomeMessage)
			continue
		case len(fields) != 2 || (fields[1] != "event" && fields[1] != "events"):
			fmt.Fprintln(sh.out, "Invalid command. Please try again.")
			continue
		}

		switch fields[0] {
		case "view":
			if fields[1] == "events" {
				printCalendar(sh.out, sh.store.ListAll())
				continue
			}
			err = sh.view()
		case "insert":
			err = sh.insert()
		case "delete":
			err = sh.remove()
		case "update":
			err = sh.update()
		default:
			fmt.Fprintln(sh.out, "Invalid command. Please try again.")
		}
		if err != nil {
			return endOfInput(err)
		}
	}
}

// endOfInput treats EOF as a normal exit.
func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ask prompts until valid returns nil for the trimmed answer.
func (sh *shell) ask(prompt string, valid func(string) error) (string, error) {
	for {
		line, err := sh.in.ReadLine(prompt)
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if verr := valid(line); verr != nil {
			fmt.Fprintf(sh.out, "        Invalid input: %v. Try again.\n", verr)
			continue
		}
		return line, nil
	}
}

func nonEmpty(what string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}

func oneOf(choices ...string) func(string) error {
	return func(s string) error {
		for _, c := range choices {
			if strings.EqualFold(s, c) {
				return nil
			}
		}
		return fmt.Errorf("expected one of [%s]", strings.Join(choices, ", "))
	}
}

func (sh *shell) askTimestamp(prompt string) (time.Time, error) {
	var at time.Time
	_, err := sh.ask(prompt, func(s string) error {
		t, err := calendar.ParseTimestamp(s, sh.loc)
		if err != nil {
			return errors.New("expected date and time as MM/DD/YYYY HH:MM")
		}
		at = t
		return nil
	})
	return at, err
}

// askIdentity reads the (title, timestamp) pair that names one event.
func (sh *shell) askIdentity() (string, time.Time, error) {
	title, err := sh.ask("      Enter event title: ", nonEmpty("event title"))
	if err != nil {
		return "", time.Time{}, err
	}
	at, err := sh.askTimestamp("      Enter event date and time (MM/DD/YYYY HH:MM): ")
	if err != nil {
		return "", time.Time{}, err
	}
	return title, at, nil
}

func (sh *shell) view() error {
	title, at, err := sh.askIdentity()
	if err != nil {
		return err
	}
	ev, ok := sh.store.FindEvent(title, at)
	if !ok {
		fmt.Fprintln(sh.out, "    Event not found. Try again")
		return nil
	}
	fmt.Fprintln(sh.out, ev.String())
	return nil
}

func (sh *shell) insert() error {
	title, at, err := sh.askIdentity()
	if err != nil {
		return err
	}
	notes, err := sh.ask("      Enter event notes: ", nonEmpty("event notes"))
	if err != nil {
		return err
	}
	repeat, err := sh.ask("      Enter how often the event is recurring (one of [none, daily, weekly, monthly, yearly]): ",
		oneOf("none", "daily", "weekly", "monthly", "yearly"))
	if err != nil {
		return err
	}

	if strings.EqualFold(repeat, "none") {
		err = sh.store.AddEvent(title, at, notes)
	} else {
		err = sh.store.AddRecurringEvent(title, at, notes, calendar.Frequency(strings.ToLower(repeat)))
	}
	sh.report(err)
	return nil
}

func (sh *shell) remove() error {
	fmt.Fprintln(sh.out, "Which event would you like to delete?")
	title, at, err := sh.askIdentity()
	if err != nil {
		return err
	}
	ev, err := sh.store.RemoveEvent(title, at)
	if err != nil {
		sh.report(err)
		return nil
	}
	fmt.Fprintf(sh.out, "The following event has been removed: %s\n", ev)
	return nil
}

func (sh *shell) update() error {
	fmt.Fprintln(sh.out, "Which event would you like to update?")
	title, at, err := sh.askIdentity()
	if err != nil {
		return err
	}
	if _, ok := sh.store.FindEvent(title, at); !ok {
		fmt.Fprintln(sh.out, "    Event not found. Try again")
		return nil
	}

	field, err := sh.ask("      Enter the field you want to update (one of [title, date, time, notes]): ",
		oneOf("title", "date", "time", "notes"))
	if err != nil {
		return err
	}

	switch strings.ToLower(field) {
	case "title":
		newTitle, err := sh.ask("      Enter the new event title: ", nonEmpty("event title"))
		if err != nil {
			return err
		}
		sh.report(sh.store.UpdateTitle(title, at, newTitle))
	case "date", "time":
		newAt, err := sh.askTimestamp("      Enter the new date and time (MM/DD/YYYY HH:MM): ")
		if err != nil {
			return err
		}
		sh.report(sh.store.UpdateTimestamp(title, at, newAt))
	case "notes":
		notes, err := sh.ask("      Enter new event notes: ", nonEmpty("event notes"))
		if err != nil {
			return err
		}
		sh.report(sh.store.UpdateNotes(title, at, notes))
	}
	return nil
}

// report prints a user-facing message for a store error.
func (sh *shell) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, calendar.ErrOutOfRange):
		fmt.Fprintln(sh.out, "        Event date must be within one year of today's date.")
	case errors.Is(err, calendar.ErrNotFound):
		fmt.Fprintln(sh.out, "    Event not found. Try again")
	default:
		fmt.Fprintf(sh.out, "        Error: %v\n", err)
	}
}
