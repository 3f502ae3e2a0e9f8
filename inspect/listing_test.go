package inspect_test

import (
	"strings"
	"testing"

	"github.com/vanbako/henad/asm"
	"github.com/vanbako/henad/inspect"
)

func buildListing(t *testing.T, source string) *inspect.Listing {
	t.Helper()
	a := asm.New(0)
	words, err := a.Assemble(source)
	if err != nil {
		t.Fatal(err)
	}
	return inspect.NewListing(a, words)
}

func TestListing_FormatLines(t *testing.T) {
	l := buildListing(t, "start: MOVSI #-1, DR1\n.dw24 1, 2\n")
	lines := l.FormatLines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 listing lines, got %d: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "000000") || !strings.Contains(lines[0], "311FFF") {
		t.Errorf("instruction line = %q", lines[0])
	}
	if !strings.Contains(lines[0], "MOVSI") {
		t.Errorf("listing should carry the source line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "000001") || !strings.Contains(lines[1], "000001 000002") {
		t.Errorf("dw24 line = %q", lines[1])
	}
}

func TestListing_PseudoShowsAllWords(t *testing.T) {
	l := buildListing(t, "JCCui EQ, 0x10\n")
	lines := l.FormatLines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 listing line, got %d", len(lines))
	}
	// All four expansion words appear on the pseudo's line.
	if got := strings.Count(lines[0], " "); got < 4 {
		t.Errorf("pseudo line should carry 4 words: %q", lines[0])
	}
	for _, w := range []string{"108000", "104000", "100000", "721010"} {
		if !strings.Contains(lines[0], w) {
			t.Errorf("missing word %s in %q", w, lines[0])
		}
	}
}

func TestListing_FormatSymbols(t *testing.T) {
	l := buildListing(t, "start: NOP\nend: NOP\n")
	syms := l.FormatSymbols()
	var foundStart, foundEnd bool
	for _, s := range syms {
		if strings.HasPrefix(s, "start") && strings.Contains(s, "0x000000000000") {
			foundStart = true
		}
		if strings.HasPrefix(s, "end") && strings.Contains(s, "0x000000000001") {
			foundEnd = true
		}
	}
	if !foundStart || !foundEnd {
		t.Errorf("symbols missing: start=%v end=%v in %v", foundStart, foundEnd, syms)
	}
}

func TestNewTUI_Builds(t *testing.T) {
	l := buildListing(t, "NOP\n")
	tui := inspect.NewTUI(l)
	if tui.App == nil || tui.ListingView == nil || tui.SymbolView == nil {
		t.Fatal("TUI views not initialized")
	}
}
