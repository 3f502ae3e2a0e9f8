package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanbako/henad/asm"
	"github.com/vanbako/henad/config"
	"github.com/vanbako/henad/inspect"
	"github.com/vanbako/henad/skald"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		output      = flag.String("o", "", "Output file path")
		format      = flag.String("format", "", "Output format (bin, hex)")
		origin      = flag.Int64("origin", -1, "Origin word address (PC counts 24-bit words)")
		compileMode = flag.Bool("compile", false, "Treat the input as Skald source")
		assemble    = flag.Bool("assemble", false, "Assemble after compiling Skald source")
		stackWords  = flag.Int("stack-words", 0, "Stack region size in words for compiled programs")
		dumpSymbols = flag.Bool("dump-symbols", false, "Dump the symbol table after assembly")
		inspectMode = flag.Bool("inspect", false, "Open the interactive listing inspector after assembly")
		configPath  = flag.String("config", "", "Config file path (default: platform config dir)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("Amber toolchain %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		os.Exit(0)
	}
	if *showHelp || flag.NArg() != 1 {
		printHelp()
		if *showHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	input := flag.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	// Flags override the config file.
	if *format == "" {
		*format = cfg.Assembler.Format
	}
	if *origin < 0 {
		*origin = cfg.Assembler.Origin
	}
	if *stackWords == 0 {
		*stackWords = cfg.Compiler.StackWords
	}
	if *format != "bin" && *format != "hex" {
		fmt.Fprintf(os.Stderr, "error: unknown format %q (want bin or hex)\n", *format)
		os.Exit(2)
	}

	if *compileMode || isSkaldSource(input) {
		runCompile(input, cfg, *output, *format, *origin, *stackWords, *assemble || cfg.Compiler.Assemble)
		return
	}
	runAssemble(input, *output, *format, *origin, *dumpSymbols, *inspectMode)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func isSkaldSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sk", ".skald":
		return true
	}
	return false
}

func runAssemble(input, output, format string, origin int64, dumpSymbols, inspectMode bool) {
	assembler := asm.New(origin)
	words, err := assembler.AssembleFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if dumpSymbols {
		for _, name := range assembler.Symbols().Names() {
			v, _ := assembler.Symbols().Lookup(name)
			fmt.Printf("%-24s 0x%012X\n", name, uint64(v))
		}
	}

	if inspectMode {
		tui := inspect.NewTUI(inspect.NewListing(assembler, words))
		if err := tui.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "inspector error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var data []byte
	suffix := ".bin"
	if format == "hex" {
		data = []byte(asm.PackWordsHex(words))
		suffix = ".hex"
	} else {
		data = asm.PackWordsBin(words)
	}
	out := output
	if out == "" {
		ext := filepath.Ext(input)
		out = strings.TrimSuffix(input, ext) + suffix
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to write %s: %v\n", out, err)
		os.Exit(1)
	}
	fmt.Printf("Assembled %s -> %s (%d words)\n", input, out, len(words))
}

func runCompile(input string, cfg *config.Config, output, format string, origin int64, stackWords int, assemble bool) {
	opts := skald.DefaultOptions()
	opts.StackWords = stackWords
	opts.EmitComments = cfg.Compiler.EmitComments
	opts.Assemble = assemble
	opts.Format = format
	opts.Origin = origin
	if output != "" {
		if assemble {
			opts.OutImage = output
		} else {
			opts.OutAsm = output
		}
	}
	res, err := skald.CompileFile(input, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if res.ImagePath != "" {
		fmt.Printf("Compiled %s -> %s; Assembled -> %s\n", input, res.AsmPath, res.ImagePath)
	} else {
		fmt.Printf("Compiled %s -> %s\n", input, res.AsmPath)
	}
}

func printHelp() {
	fmt.Println(`Amber toolchain - assembler and Skald compiler

Usage:
  amber [options] <input>

Inputs ending in .sk or .skald (or with -compile) are compiled to
Amber assembly; anything else is assembled to a binary or hex image.

Options:
  -o <path>        Output file path
  -format <fmt>    Output format: bin (default) or hex
  -origin <n>      Origin word address (default 0)
  -compile         Treat the input as Skald source
  -assemble        Assemble the compiled output as well
  -stack-words <n> Stack region size for compiled programs
  -dump-symbols    Print the symbol table after assembly
  -inspect         Open the interactive listing inspector
  -config <path>   Config file path
  -version         Show version information

Examples:
  amber program.asm
  amber -format hex -o program.hex program.asm
  amber -assemble program.sk
  amber -inspect program.asm`)
}
