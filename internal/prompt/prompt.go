// Package prompt implements the interactive parts of the CLI: the numbered
// file menu and hidden password entry.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrCancelled is returned when the user leaves the menu without choosing.
var ErrCancelled = errors.New("selection cancelled")

// Prompter reads answers from in and writes questions to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// fd is the terminal used for hidden input, or -1 when in is not a terminal.
	fd int
}

// New creates a Prompter over arbitrary streams. Passwords are read as plain
// lines.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
}

// NewTerminal creates a Prompter on stdin/stderr that hides passwords when
// stdin is a terminal.
func NewTerminal() *Prompter {
	p := New(os.Stdin, os.Stderr)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		p.fd = fd
	}
	return p
}

// Interactive reports whether stdin is a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// SelectFiles shows a numbered menu of files and returns the chosen ones.
//
// Answers:
//   - a number picks one file
//   - "a" or "all" picks every file
//   - "q", "quit" or an empty line cancels with ErrCancelled
//
// Invalid answers are reported and asked again.
func (p *Prompter) SelectFiles(files []string) ([]string, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to choose from")
	}

	fmt.Fprintln(p.out, "Files found:")
	for i, f := range files {
		fmt.Fprintf(p.out, "  [%d] %s\n", i+1, filepath.Base(f))
	}

	for {
		fmt.Fprintf(p.out, "Choose a file (1-%d, a = all, q = quit): ", len(files))

		line, err := p.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrCancelled
			}
			return nil, err
		}

		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "", "q", "quit":
			return nil, ErrCancelled
		case "a", "all":
			return files, nil
		}

		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(files) {
			fmt.Fprintf(p.out, "Invalid option %q.\n", line)
			continue
		}
		return []string{files[n-1]}, nil
	}
}

// Password asks for a workbook password. It matches
// xlsxparser.PasswordFunc.
func (p *Prompter) Password(fileName string, attempt int) (string, error) {
	if attempt > 1 {
		fmt.Fprintln(p.out, "Wrong password, try again.")
	}
	fmt.Fprintf(p.out, "Password for %s: ", fileName)

	if p.fd >= 0 {
		secret, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}

	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	return line, nil
}

// readLine returns the next line without its line ending.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		return line, err
	}
	return line, nil
}
