// Package skald implements the Skald compiler: a small typed surface
// language lowered to Amber assembly. The pipeline is lexer -> parser
// (typed AST) -> code generator -> assembly text, optionally handed
// to the assembler for a binary or hex image.
package skald

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanbako/henad/asm"
)

// Options controls compilation.
type Options struct {
	// StackWords sizes the emitted stack region (default 64).
	StackWords int
	// EmitComments keeps the explanatory assembly comments.
	EmitComments bool
	// Assemble runs the assembler on the generated text.
	Assemble bool
	// Format selects "bin" or "hex" output when assembling.
	Format string
	// Origin is the assembler origin word address.
	Origin int64
	// OutAsm overrides the assembly output path (file compilation).
	OutAsm string
	// OutImage overrides the binary/hex output path.
	OutImage string
}

// DefaultOptions returns the default compile options.
func DefaultOptions() Options {
	return Options{StackWords: 64, EmitComments: true, Format: "bin"}
}

// Result reports what a file compilation produced.
type Result struct {
	AsmText   string
	AsmPath   string
	ImagePath string
}

// Compile lowers Skald source text to Amber assembly.
func Compile(src string, opts Options) (string, error) {
	prog, err := Parse(src)
	if err != nil {
		return "", err
	}
	cg := NewCodeGen()
	if opts.StackWords > 0 {
		cg.StackWords = opts.StackWords
	}
	cg.EmitComments = opts.EmitComments
	return cg.GenProgram(prog)
}

// CompileFile compiles path to an .asm file next to it (or
// opts.OutAsm) and optionally assembles the result.
func CompileFile(path string, opts Options) (*Result, error) {
	src, err := os.ReadFile(path) // #nosec G304 -- user-provided source path
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	text, err := Compile(string(src), opts)
	if err != nil {
		return nil, err
	}
	outAsm := opts.OutAsm
	if outAsm == "" {
		outAsm = withSuffix(path, ".asm")
	}
	res := &Result{AsmText: text, AsmPath: outAsm}
	if !opts.Assemble {
		if err := os.WriteFile(outAsm, []byte(text), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", outAsm, err)
		}
		return res, nil
	}

	assembler := asm.New(opts.Origin)
	words, err := assembler.Assemble(text)
	if err != nil {
		return nil, err
	}
	var data []byte
	suffix := ".bin"
	if opts.Format == "hex" {
		data = []byte(asm.PackWordsHex(words))
		suffix = ".hex"
	} else {
		data = asm.PackWordsBin(words)
	}
	outImage := opts.OutImage
	if outImage == "" {
		outImage = withSuffix(path, suffix)
	}
	// Nothing is written until assembly has succeeded.
	if err := os.WriteFile(outAsm, []byte(text), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outAsm, err)
	}
	if err := os.WriteFile(outImage, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outImage, err)
	}
	res.ImagePath = outImage
	return res, nil
}

func withSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix
}
