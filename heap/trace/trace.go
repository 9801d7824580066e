// Package trace parses allocation traces and replays them against an
// allocator, checking every payload along the way.
//
// A trace file starts with four header numbers, one per line: the suggested
// heap size, the number of ids, the number of ops and a weight. One op per
// line follows:
//
//	a <id> <bytes>   allocate bytes and bind the result to id
//	r <id> <bytes>   resize the block bound to id
//	f <id>           free the block bound to id
//
// Blank lines and lines starting with '#' are ignored.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// ScannerMaxLineSize bounds a single trace line.
	ScannerMaxLineSize = 64 * 1024

	commentPrefix = "#"
)

// Kind is the operation of one trace line.
type Kind byte

const (
	Alloc   Kind = 'a'
	Realloc Kind = 'r'
	Free    Kind = 'f'
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Realloc:
		return "realloc"
	case Free:
		return "free"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Op is one parsed trace line.
type Op struct {
	Kind Kind
	ID   int
	Size int64 // zero for Free
	Line int   // 1-based source line
}

// Trace is a parsed trace file.
type Trace struct {
	Name     string
	HeapSize int // suggested heap size, informational
	NumIDs   int
	Weight   int
	Ops      []Op
}

// ParseFile opens and parses the trace at path. The trace is named after the
// file.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tr, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tr.Name = filepath.Base(path)
	return tr, nil
}

// Parse reads a trace. A leading UTF-8 or UTF-16 byte order mark is honoured
// so traces saved by Windows editors still parse.
func Parse(r io.Reader) (*Trace, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(r, decoder))
	scanner.Buffer(make([]byte, 0, 4096), ScannerMaxLineSize)

	tr := &Trace{}
	var header []int
	var declaredOps int
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		if len(header) < 4 {
			n, err := strconv.Atoi(line)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("line %d: header value %q: %w", lineNo, line, ErrSyntax)
			}
			header = append(header, n)
			if len(header) == 4 {
				tr.HeapSize, tr.NumIDs, declaredOps, tr.Weight = header[0], header[1], header[2], header[3]
				tr.Ops = make([]Op, 0, min(declaredOps, 1<<16))
			}
			continue
		}

		op, err := parseOp(line, lineNo, tr.NumIDs)
		if err != nil {
			return nil, err
		}
		tr.Ops = append(tr.Ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(header) < 4 {
		return nil, fmt.Errorf("header has %d of 4 values: %w", len(header), ErrSyntax)
	}
	if len(tr.Ops) != declaredOps {
		return nil, fmt.Errorf("header declares %d ops, found %d: %w", declaredOps, len(tr.Ops), ErrOpCount)
	}
	return tr, nil
}

func parseOp(line string, lineNo, numIDs int) (Op, error) {
	fields := strings.Fields(line)
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("line %d: unknown op %q: %w", lineNo, fields[0], ErrSyntax)
	}
	op := Op{Kind: Kind(fields[0][0]), Line: lineNo}

	want := 3
	switch op.Kind {
	case Alloc, Realloc:
	case Free:
		want = 2
	default:
		return Op{}, fmt.Errorf("line %d: unknown op %q: %w", lineNo, fields[0], ErrSyntax)
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("line %d: %s takes %d fields, got %d: %w", lineNo, op.Kind, want-1, len(fields)-1, ErrSyntax)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return Op{}, fmt.Errorf("line %d: id %q: %w", lineNo, fields[1], ErrSyntax)
	}
	if id < 0 || id >= numIDs {
		return Op{}, fmt.Errorf("line %d: id %d not in [0,%d): %w", lineNo, id, numIDs, ErrBadID)
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("line %d: size %q: %w", lineNo, fields[2], ErrSyntax)
		}
		op.Size = size
	}
	return op, nil
}
