// Package console is the line-oriented terminal front end: a main panel that
// selects a table, one panel per table with CRUD commands, and wizards that
// collect validated field values.
package console

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

const exitCommand = "EXIT"

// Command patterns. ID arguments are double quoted.
var (
	useCommand   = regexp.MustCompile(`^USE\s+(STAFF|VEHICLE|WEAPON)$`)
	tableCommand = regexp.MustCompile(`^(LIST|NEW)$`)
	idCommand    = regexp.MustCompile(`^(GET|EDIT|DELETE)\s+"(.+)"$`)
	staffCommand = regexp.MustCompile(`^(AGE|SENIORITY|SUBORDINATES)\s+"(.+)"$`)
)

// Command is a parsed panel command.
type Command struct {
	Name string
	Arg  string
}

// ParseCommand matches line against patterns, returning the first capture as
// the name and the second, when present, as the argument. A pattern without
// captures yields the whole line as the name.
func ParseCommand(line string, patterns ...*regexp.Regexp) (Command, bool) {
	line = strings.TrimSpace(line)
	if line == exitCommand {
		return Command{Name: exitCommand}, true
	}
	for _, re := range patterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch len(m) {
		case 1:
			return Command{Name: m[0]}, true
		case 2:
			return Command{Name: m[1]}, true
		default:
			return Command{Name: m[1], Arg: m[2]}, true
		}
	}
	return Command{}, false
}

// Panel repeatedly reads a command until EXIT.
type Panel struct {
	Title    string
	Patterns []*regexp.Regexp
	Help     []HelpLine
	Handle   func(ctx context.Context, cmd Command) error
}

// HelpLine is one usage entry.
type HelpLine struct {
	Usage string
	Text  string
}

// Run prints usage and dispatches commands. Handler errors are printed and
// the loop continues; a closed input ends the panel.
func (pl *Panel) Run(ctx context.Context, p *Prompter) error {
	pl.printHelp(p)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := p.Line(pl.Title)
		if err != nil {
			return err
		}
		cmd, ok := ParseCommand(line, pl.Patterns...)
		if !ok {
			p.Error("Invalid input.")
			continue
		}
		if cmd.Name == exitCommand {
			return nil
		}
		if err := pl.Handle(ctx, cmd); err != nil {
			if errors.Is(err, ErrInputClosed) {
				return err
			}
			p.Error(err.Error())
		}
	}
}

func (pl *Panel) printHelp(p *Prompter) {
	if len(pl.Help) == 0 {
		return
	}
	p.Printf("\nUsage:")
	for _, h := range pl.Help {
		p.Printf("\t%s", h.Usage)
		p.Printf("\t  %s", h.Text)
	}
	p.Printf("")
}
