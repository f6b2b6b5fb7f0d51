package sedra

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrOutOfRange is matched by every *RangeError.
	ErrOutOfRange = errors.New("out of range")

	// ErrInvalidSelector is returned for a parsha name or number that
	// cannot be parsed.
	ErrInvalidSelector = errors.New("invalid parsha selector")
)

// RangeError reports an input outside the domain of an operation.
type RangeError struct {
	Op    string
	Input string
	Msg   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("sedra: %s %s: %s", e.Op, e.Input, e.Msg)
}

func (e *RangeError) Is(target error) bool { return target == ErrOutOfRange }

type selectorKind int

const (
	single selectorKind = iota + 1
	pair
)

// Selector names what Find looks for: one parsha, or a pair read
// together. The zero Selector selects nothing.
type Selector struct {
	kind   selectorKind
	first  int
	second int
}

// ByIndex selects the parsha at 0-based index i. A negative i selects
// the pair starting at -i, so ByIndex(-38) is ByPair(38, 39).
func ByIndex(i int) Selector {
	if i < 0 {
		return ByPair(-i, -i+1)
	}
	return Selector{kind: single, first: i}
}

// ByPair selects parshiot a and b read on the same Saturday.
func ByPair(a, b int) Selector {
	return Selector{kind: pair, first: a, second: b}
}

// ByName selects a parsha by name, case-insensitively.
func ByName(name string) (Selector, error) {
	i, ok := Index(name)
	if !ok {
		return Selector{}, fmt.Errorf("%w: unknown parsha %q", ErrInvalidSelector, name)
	}
	return ByIndex(i), nil
}

// ParseSelector accepts a parsha name ("Lech-Lecha"), a pair joined by a
// hyphen ("Chukat-Balak"), a 0-based index ("38") or a negated index
// naming the pair that starts there ("-38").
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if i, ok := Index(s); ok {
		return ByIndex(i), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return ByIndex(n), nil
	}
	// Names such as "Lech-Lecha" contain a hyphen themselves, so try every
	// split point rather than the first.
	for i := strings.IndexByte(s, '-'); i >= 0; {
		a, okA := Index(s[:i])
		b, okB := Index(s[i+1:])
		if okA && okB {
			return ByPair(a, b), nil
		}
		j := strings.IndexByte(s[i+1:], '-')
		if j < 0 {
			break
		}
		i += j + 1
	}
	return Selector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
}

// IsPair reports whether s selects two parshiot.
func (s Selector) IsPair() bool { return s.kind == pair }

// Indexes returns the 0-based parsha indexes s selects.
func (s Selector) Indexes() []int {
	switch s.kind {
	case single:
		return []int{s.first}
	case pair:
		return []int{s.first, s.second}
	}
	return nil
}

func (s Selector) String() string {
	switch s.kind {
	case single:
		if n := Name(s.first); n != "" {
			return n
		}
		return strconv.Itoa(s.first)
	case pair:
		return fmt.Sprintf("%s-%s", Selector{kind: single, first: s.first}, Selector{kind: single, first: s.second})
	}
	return "<none>"
}

// validate checks that s names a real parsha or a pair that can be read
// together.
func (s Selector) validate() error {
	switch s.kind {
	case single:
		if s.first >= Count {
			return &RangeError{Op: "find", Input: strconv.Itoa(s.first), Msg: "parsha index must be 0-53"}
		}
	case pair:
		if s.second != s.first+1 || !doubles[s.first] {
			return &RangeError{Op: "find", Input: s.String(), Msg: "parshiot are never read together"}
		}
	default:
		return fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}
	return nil
}

// week returns the pattern entry that reads exactly s.
func (s Selector) week() week {
	if s.kind == pair {
		return week(-s.first)
	}
	return week(s.first)
}
