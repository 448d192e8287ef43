package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	commentPrefix = "#"
	assignToken   = "="

	scannerInitialBufferSize = 4 * 1024
	scannerMaxLineSize       = 64 * 1024
)

// ErrSyntax is wrapped by every parse error.
var ErrSyntax = errors.New("trace: syntax error")

// Parse reads a whole script.
func Parse(r io.Reader) ([]Op, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, scannerInitialBufferSize)
	scanner.Buffer(buf, scannerMaxLineSize)

	var ops []Op
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, commentPrefix); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		op, err := parseFields(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrSyntax, lineNo, err)
		}
		op.Line = lineNo
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}

// ParseString is Parse over a string.
func ParseString(s string) ([]Op, error) {
	return Parse(strings.NewReader(s))
}

func parseFields(fields []string) (Op, error) {
	var dest string
	if len(fields) >= 2 && fields[1] == assignToken {
		dest = fields[0]
		if err := checkName(dest); err != nil {
			return Op{}, err
		}
		fields = fields[2:]
		if len(fields) == 0 {
			return Op{}, errors.New("missing operation after '='")
		}
	}

	verb, args := strings.ToLower(fields[0]), fields[1:]
	op := Op{Dest: dest}
	var err error

	switch verb {
	case "malloc":
		op.Kind = KindMalloc
		if err = wantArgs(verb, args, 1); err == nil {
			op.A, err = parseSize(args[0])
		}
	case "calloc":
		op.Kind = KindCalloc
		if err = wantArgs(verb, args, 2); err == nil {
			if op.A, err = parseNumber(args[0]); err == nil {
				op.B, err = parseSize(args[1])
			}
		}
	case "realloc":
		op.Kind = KindRealloc
		if err = wantArgs(verb, args, 2); err == nil {
			op.Src = args[0]
			op.A, err = parseSize(args[1])
		}
	case "free":
		op.Kind = KindFree
		if err = wantArgs(verb, args, 1); err == nil {
			op.Src = args[0]
		}
	case "write", "check":
		op.Kind = KindWrite
		if verb == "check" {
			op.Kind = KindCheck
		}
		if err = wantArgs(verb, args, 3); err == nil {
			op.Src = args[0]
			if op.Fill, err = parseByte(args[1]); err == nil {
				op.A, err = parseSize(args[2])
			}
		}
	case "stats":
		op.Kind = KindStats
		err = wantArgs(verb, args, 0)
	default:
		return Op{}, fmt.Errorf("unknown operation %q", fields[0])
	}
	if err != nil {
		return Op{}, err
	}

	assigns := op.Kind == KindMalloc || op.Kind == KindCalloc || op.Kind == KindRealloc
	switch {
	case assigns && dest == "":
		return Op{}, fmt.Errorf("%s needs a destination: name = %s ...", verb, verb)
	case !assigns && dest != "":
		return Op{}, fmt.Errorf("%s does not produce a value", verb)
	}
	if op.Src != "" && op.Src != NilName {
		if err := checkName(op.Src); err != nil {
			return Op{}, err
		}
	}
	if (op.Kind == KindWrite || op.Kind == KindCheck) && op.Src == NilName {
		return Op{}, fmt.Errorf("%s needs a block, not nil", verb)
	}
	return op, nil
}

func wantArgs(verb string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s takes %d argument(s), got %d", verb, n, len(args))
	}
	return nil
}

func checkName(name string) error {
	if name == NilName {
		return fmt.Errorf("%q is reserved", NilName)
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return fmt.Errorf("invalid name %q", name)
		}
	}
	return nil
}

func parseNumber(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return byte(v), nil
}

// parseSize accepts plain and prefixed integers as well as unit sizes.
func parseSize(s string) (uint64, error) {
	if n, err := strconv.ParseUint(s, 0, 64); err == nil {
		return n, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n, nil
}
