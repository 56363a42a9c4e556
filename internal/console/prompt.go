package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"sspdb/pkg/domain"
)

// ErrInputClosed is returned once the input stream is exhausted.
var ErrInputClosed = errors.New("input closed")

var yesNo = regexp.MustCompile(`^(?i:yes|no|si)$`)

// Prompter reads validated answers line by line. Every prompt is printed as
// "<prefix>>> " and every rejected answer as "ERROR: <message>".
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter reads from r and writes prompts to w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(r), out: w}
}

// Printf writes a formatted line.
func (p *Prompter) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Error writes an error line.
func (p *Prompter) Error(msg string) {
	fmt.Fprintf(p.out, "ERROR: %s\n", msg)
}

// Line prompts once and returns the trimmed answer.
func (p *Prompter) Line(prefix string) (string, error) {
	fmt.Fprintf(p.out, "%s>> ", prefix)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Match prompts until the answer matches re, which callers anchor.
func (p *Prompter) Match(re *regexp.Regexp, prefix, errMsg string) (string, error) {
	return p.until(prefix, func(s string) error {
		if !re.MatchString(s) {
			return errors.New(errMsg)
		}
		return nil
	})
}

// Length prompts until the answer has between lo and hi characters.
func (p *Prompter) Length(prefix string, lo, hi int) (string, error) {
	return p.until(prefix, func(s string) error {
		if n := len([]rune(s)); n < lo || n > hi {
			return fmt.Errorf("must be %d to %d characters", lo, hi)
		}
		return nil
	})
}

// Date prompts until the answer is a YYYY-MM-DD date.
func (p *Prompter) Date(prefix string) (time.Time, error) {
	var d time.Time
	_, err := p.until(prefix, func(s string) error {
		var err error
		d, err = domain.ParseDate(s)
		if err != nil {
			return fmt.Errorf("invalid date format: %s. Must use YYYY-MM-DD", s)
		}
		return nil
	})
	return d, err
}

// Index prompts until the answer is an integer in [0, n).
func (p *Prompter) Index(prefix string, n int) (int, error) {
	var idx int
	_, err := p.until(prefix, func(s string) error {
		i, err := strconv.Atoi(s)
		if err != nil || i < 0 || i >= n {
			return fmt.Errorf("choose an index between 0 and %d", n-1)
		}
		idx = i
		return nil
	})
	return idx, err
}

// YesNo prompts until the answer is yes, no or si (any case).
func (p *Prompter) YesNo(prefix string) (bool, error) {
	s, err := p.Match(yesNo, prefix, "answer yes or no")
	if err != nil {
		return false, err
	}
	return !strings.EqualFold(s, "no"), nil
}

func (p *Prompter) until(prefix string, check func(string) error) (string, error) {
	for {
		s, err := p.Line(prefix)
		if err != nil {
			return "", err
		}
		if err := check(s); err != nil {
			p.Error(err.Error())
			continue
		}
		return s, nil
	}
}

// whole anchors pattern so it must match an entire answer.
func whole(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + pattern + `)$`)
}
