package asm

import (
	"os"
	"path/filepath"
	"strings"
)

// MaxIncludeDepth bounds recursive file inclusion.
const MaxIncludeDepth = 100

// Preprocessor expands .include directives ahead of macro expansion
// and pass 1. Macros defined in an included file therefore stay
// visible for the whole translation unit, including after the include
// region closes.
type Preprocessor struct{}

// NewPreprocessor creates a preprocessor.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// ExpandFile reads path and expands its includes. Relative includes
// resolve against the including file's directory.
func (p *Preprocessor) ExpandFile(path string) (string, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- user-provided source path
	if err != nil {
		return "", errorf(ErrorPreprocessor, 0, "", "failed to read %q: %v", path, err)
	}
	return p.expand(string(content), []string{filepath.Dir(path)}, 0)
}

// Expand expands includes in source, resolving relative paths against
// baseDir (the current working directory when assembling from a raw
// string).
func (p *Preprocessor) Expand(source, baseDir string) (string, error) {
	if baseDir == "" {
		baseDir = "."
	}
	return p.expand(source, []string{baseDir}, 0)
}

func (p *Preprocessor) expand(source string, baseStack []string, depth int) (string, error) {
	if depth > MaxIncludeDepth {
		return "", errorf(ErrorPreprocessor, 0, "", "include depth exceeds %d (include loop?)", MaxIncludeDepth)
	}
	// Tolerate a UTF-8 BOM at the start of files.
	source = strings.TrimPrefix(source, "\ufeff")

	var out []string
	for lineNum, raw := range strings.Split(source, "\n") {
		s := stripComment(raw)
		if s == "" {
			out = append(out, raw)
			continue
		}
		label, rest := splitLabel(s)
		probe := s
		if label != "" {
			probe = rest
		}
		if !strings.HasPrefix(strings.ToLower(probe), ".include") {
			out = append(out, raw)
			continue
		}
		arg := strings.TrimSpace(probe[len(".include"):])
		if arg == "" {
			return "", errorf(ErrorPreprocessor, lineNum+1, raw, ".include requires a path argument")
		}
		spec, err := parseIncludeArg(arg)
		if err != nil {
			return "", errorf(ErrorPreprocessor, lineNum+1, raw, "%v", err)
		}
		incPath := resolveIncludePath(spec, baseStack)
		content, err := os.ReadFile(incPath) // #nosec G304 -- user-provided include path
		if err != nil {
			return "", errorf(ErrorPreprocessor, lineNum+1, raw, "failed to read include %q: %v", incPath, err)
		}
		// Emit an optional call-site label before the included
		// content, then delimit the region for traceability.
		if label != "" {
			out = append(out, label+":")
		}
		out = append(out, "; ---- begin include: "+incPath+" ----")
		expanded, err := p.expand(string(content), append(baseStack, filepath.Dir(incPath)), depth+1)
		if err != nil {
			return "", err
		}
		out = append(out, expanded)
		out = append(out, "; ---- end include: "+incPath+" ----")
	}
	result := strings.Join(out, "\n")
	if !strings.HasSuffix(source, "\n") {
		result += "\n"
	}
	return result, nil
}

// parseIncludeArg extracts the path from a quoted, angle-bracketed,
// or bare include argument.
func parseIncludeArg(arg string) (string, error) {
	a := strings.TrimSpace(arg)
	switch {
	case a[0] == '"' || a[0] == '\'':
		q := a[0]
		j := strings.IndexByte(a[1:], q)
		if j == -1 {
			return "", errorf(ErrorPreprocessor, 0, "", ".include unterminated quoted path")
		}
		return a[1 : 1+j], nil
	case a[0] == '<':
		j := strings.IndexByte(a, '>')
		if j == -1 {
			return "", errorf(ErrorPreprocessor, 0, "", ".include unterminated angle-bracket path")
		}
		return a[1:j], nil
	}
	return strings.Fields(a)[0], nil
}

// resolveIncludePath resolves an include spec: absolute paths win,
// then the including file's directory (top of the stack), then the
// current working directory. An unresolvable spec is returned as-is
// and fails on read.
func resolveIncludePath(spec string, baseStack []string) string {
	if filepath.IsAbs(spec) {
		if _, err := os.Stat(spec); err == nil {
			return spec
		}
	}
	if len(baseStack) > 0 {
		cand := filepath.Join(baseStack[len(baseStack)-1], spec)
		if _, err := os.Stat(cand); err == nil {
			return cand
		}
	}
	if wd, err := os.Getwd(); err == nil {
		cand := filepath.Join(wd, spec)
		if _, err := os.Stat(cand); err == nil {
			return cand
		}
	}
	return spec
}
