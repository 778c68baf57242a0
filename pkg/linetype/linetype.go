// Package linetype classifies single source lines into structural categories.
//
// Classification is a total function: every input string, including the
// empty string, maps to exactly one [LineType]. Rules are evaluated in a
// fixed order and the first match wins, so comment detection outranks
// keyword detection, which outranks the mixed code-and-comment case.
package linetype

import (
	"fmt"
	"strings"
)

// LineType is the structural category of one source line.
type LineType int

// Line classification constants, ordered by rule precedence.
const (
	// Comment is a line that is entirely comment content.
	Comment LineType = iota
	// ComplexityIncreasing is a code line opening a branch, loop, or
	// other control-flow construct.
	ComplexityIncreasing
	// Code is a plain code line.
	Code
	// CodeAndComment is a code line with a trailing line comment.
	CodeAndComment
	// Empty is a blank or whitespace-only line.
	Empty
)

// String returns the lowercase display name of the line type.
func (t LineType) String() string {
	switch t {
	case Comment:
		return "comment"
	case ComplexityIncreasing:
		return "complexity"
	case Code:
		return "code"
	case CodeAndComment:
		return "code-and-comment"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Parse returns the line type named by s, inverting [LineType.String].
func Parse(s string) (LineType, error) {
	switch s {
	case "comment":
		return Comment, nil
	case "complexity":
		return ComplexityIncreasing, nil
	case "code":
		return Code, nil
	case "code-and-comment":
		return CodeAndComment, nil
	case "empty":
		return Empty, nil
	default:
		return 0, fmt.Errorf("unknown line type %q", s)
	}
}

// commentPrefixes are the openers that mark a whole line as comment content.
// "///" and "*/" are subsumed by shorter entries but stay in the documented set.
var commentPrefixes = []string{"//", "/*", "*", "///", "*/"}

// DefaultKeywords returns the control-flow keywords recognized by the
// default classifier. The set targets C#-family sources.
func DefaultKeywords() []string {
	return []string{
		"if", "else", "for", "foreach", "while", "do",
		"switch", "case", "catch", "finally", "try", "throw",
		"return", "break", "continue", "goto",
		"yield", "await", "lock",
	}
}

// Classifier maps lines to line types using a configurable keyword set.
// The zero value is not usable; construct with [NewClassifier].
type Classifier struct {
	keywords map[string]struct{}
}

// NewClassifier returns a classifier recognizing the given control-flow
// keywords. With no arguments the default keyword set is used.
func NewClassifier(keywords ...string) *Classifier {
	if len(keywords) == 0 {
		keywords = DefaultKeywords()
	}

	set := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		set[kw] = struct{}{}
	}

	return &Classifier{keywords: set}
}

// Classify returns the line type of a single line. The line must not
// contain a line terminator.
func (c *Classifier) Classify(line string) LineType {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Empty
	}

	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return Comment
		}
	}

	// Trailing comments never affect keyword detection: the keyword is
	// matched against the content before the first "//".
	code := trimmed
	hasTrailing := false

	if idx := strings.Index(trimmed, "//"); idx >= 0 {
		code = strings.TrimSpace(trimmed[:idx])
		hasTrailing = true
	}

	if c.matchesKeyword(code) {
		return ComplexityIncreasing
	}

	if hasTrailing {
		return CodeAndComment
	}

	return Code
}

// matchesKeyword reports whether code begins with a recognized keyword as
// an exact token, so "ifElse" and "xif" never match "if".
func (c *Classifier) matchesKeyword(code string) bool {
	_, ok := c.keywords[leadingToken(code)]

	return ok
}

// leadingToken returns the first token of code. A token ends at the first
// space, tab, '(', or ';', or at end of string.
func leadingToken(code string) string {
	for i := range len(code) {
		switch code[i] {
		case ' ', '\t', '(', ';':
			return code[:i]
		}
	}

	return code
}

// defaultClassifier backs the package-level Classify shortcut.
var defaultClassifier = NewClassifier()

// Classify classifies a line using the default keyword set.
func Classify(line string) LineType {
	return defaultClassifier.Classify(line)
}
