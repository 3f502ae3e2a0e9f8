// Package inspect provides an interactive terminal viewer for an
// assembled image: the pass-1 listing (addresses, encoded words,
// source lines) side by side with the symbol table.
package inspect

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/vanbako/henad/asm"
)

// Listing pairs the assembler's IR with the emitted words for
// display.
type Listing struct {
	Origin  int64
	Items   []asm.Item
	Words   []uint32
	Symbols *asm.SymbolTable
}

// NewListing captures the state of a completed assembly.
func NewListing(a *asm.Assembler, words []uint32) *Listing {
	return &Listing{
		Origin:  a.Origin(),
		Items:   a.Items(),
		Words:   words,
		Symbols: a.Symbols(),
	}
}

// FormatLines renders the listing: word address, the encoded words at
// that address, and the source line.
func (l *Listing) FormatLines() []string {
	var out []string
	for _, item := range l.Items {
		info := item.Info()
		var words []uint32
		count := itemWords(item)
		start := info.Addr - l.Origin
		for i := int64(0); i < count; i++ {
			idx := start + i
			if idx >= 0 && idx < int64(len(l.Words)) {
				words = append(words, l.Words[idx])
			}
		}
		var hex []string
		for _, w := range words {
			hex = append(hex, fmt.Sprintf("%06X", w&0xFFFFFF))
		}
		src := strings.TrimRight(info.Src, " \t")
		out = append(out, fmt.Sprintf("%06X  %-20s %s", info.Addr, strings.Join(hex, " "), src))
	}
	return out
}

func itemWords(item asm.Item) int64 {
	switch it := item.(type) {
	case *asm.Instruction:
		return 1
	case *asm.Pseudo:
		return it.Words
	case *asm.Directive:
		if it.Name == "dw24" || it.Name == "diad" {
			return int64(len(it.Args))
		}
	}
	return 0
}

// FormatSymbols renders the symbol table, one name per line.
func (l *Listing) FormatSymbols() []string {
	var out []string
	for _, name := range l.Symbols.Names() {
		v, _ := l.Symbols.Lookup(name)
		out = append(out, fmt.Sprintf("%-24s 0x%012X", name, uint64(v)))
	}
	return out
}

// TUI is the terminal UI around a listing.
type TUI struct {
	App        *tview.Application
	MainLayout *tview.Flex

	ListingView *tview.TextView
	SymbolView  *tview.TextView
	StatusBar   *tview.TextView

	listing *Listing
}

// NewTUI creates the inspector UI for a listing.
func NewTUI(listing *Listing) *TUI {
	t := &TUI{
		App:     tview.NewApplication(),
		listing: listing,
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	t.refresh()
	return t
}

// initializeViews creates the view panels.
func (t *TUI) initializeViews() {
	t.ListingView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.ListingView.SetBorder(true).SetTitle(" Listing ")

	t.SymbolView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.SymbolView.SetBorder(true).SetTitle(" Symbols ")

	t.StatusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
}

// buildLayout arranges the panels.
func (t *TUI) buildLayout() {
	content := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.ListingView, 0, 3, true).
		AddItem(t.SymbolView, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(content, 0, 1, true).
		AddItem(t.StatusBar, 1, 0, false)
}

// setupKeyBindings installs the global key handlers.
func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape, event.Rune() == 'q':
			t.App.Stop()
			return nil
		case event.Key() == tcell.KeyTab:
			if t.ListingView.HasFocus() {
				t.App.SetFocus(t.SymbolView)
			} else {
				t.App.SetFocus(t.ListingView)
			}
			return nil
		}
		return event
	})
}

// refresh fills the panels from the listing.
func (t *TUI) refresh() {
	t.ListingView.SetText(strings.Join(t.listing.FormatLines(), "\n"))
	t.SymbolView.SetText(strings.Join(t.listing.FormatSymbols(), "\n"))
	t.StatusBar.SetText(fmt.Sprintf(" %d words  origin 0x%06X  [yellow]q[-] quit  [yellow]Tab[-] switch pane",
		len(t.listing.Words), t.listing.Origin))
}

// Run starts the UI event loop.
func (t *TUI) Run() error {
	return t.App.SetRoot(t.MainLayout, true).Run()
}
