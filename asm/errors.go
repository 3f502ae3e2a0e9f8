package asm

import (
	"fmt"
	"strings"
)

// ErrorKind categorizes assembler errors.
type ErrorKind int

const (
	ErrorParse        ErrorKind = iota // malformed line, number, or macro definition
	ErrorSymbol                        // duplicate label/.equ, unknown symbol, unresolved forward .equ
	ErrorEncoding                      // operand count/range problems, missing spec
	ErrorDirective                     // bad directive arguments
	ErrorPreprocessor                  // include depth, macro depth, unknown macro parameter
)

var errorKindNames = map[ErrorKind]string{
	ErrorParse:        "parse",
	ErrorSymbol:       "symbol",
	ErrorEncoding:     "encoding",
	ErrorDirective:    "directive",
	ErrorPreprocessor: "preprocessor",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is an assembler error carrying the originating source line.
// Line numbers count within the preprocessed stream; the include
// trail is preserved in the stream's delimiter comments.
type Error struct {
	Line    int
	Src     string
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d: ", e.Line)
	}
	fmt.Fprintf(&sb, "%s error: %s", e.Kind, e.Message)
	if s := strings.TrimSpace(e.Src); s != "" {
		fmt.Fprintf(&sb, "\n    %s", s)
	}
	return sb.String()
}

func errorf(kind ErrorKind, line int, src, format string, args ...any) *Error {
	return &Error{Line: line, Src: src, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
