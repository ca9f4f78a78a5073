package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Series holds cwnd samples in file order.
type Series struct {
	Times []float64
	Sizes []float64
}

func (s Series) Len() int { return len(s.Times) }

type ParseError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: bad cwnd sample %q: %v", e.Path, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errFieldCount = errors.New("want 2 whitespace-separated fields")

// ReadCwnd loads a header-less "<time> <cwnd>" trace as written by the
// ns-3 cwnd tracer.
func ReadCwnd(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, err
	}
	defer func() { _ = f.Close() }()

	return Parse(f, path)
}

// Parse reads samples from r; name is only used in errors. Blank lines are skipped.
func Parse(r io.Reader, name string) (Series, error) {
	var s Series
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return Series{}, &ParseError{Path: name, Line: line, Text: text, Err: errFieldCount}
		}

		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Series{}, &ParseError{Path: name, Line: line, Text: text, Err: err}
		}
		w, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Series{}, &ParseError{Path: name, Line: line, Text: text, Err: err}
		}

		s.Times = append(s.Times, t)
		s.Sizes = append(s.Sizes, w)
	}
	if err := sc.Err(); err != nil {
		return Series{}, fmt.Errorf("read %s: %w", name, err)
	}
	return s, nil
}
