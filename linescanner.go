package stash

import (
	"bufio"
	"io"
)

// linescanner wraps bufio.Scanner with the file name and line number needed
// for error messages.
type linescanner struct {
	scanner *bufio.Scanner
	name    string
	line    int
}

func newLineScanner(name string, r io.Reader) *linescanner {
	if name == "" {
		name = "(stream)"
	}
	return &linescanner{scanner: bufio.NewScanner(r), name: name}
}

func (s *linescanner) Scan() bool {
	if s.scanner.Scan() {
		s.line++
		return true
	}
	return false
}

func (s *linescanner) Text() string {
	return s.scanner.Text()
}

func (s *linescanner) Name() string {
	return s.name
}

func (s *linescanner) LineNumber() int {
	return s.line
}
