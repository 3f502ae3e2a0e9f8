package asm_test

import (
	"strings"
	"testing"

	"github.com/vanbako/henad/asm"
)

func TestPackWordsBin_LittleEndianTriplets(t *testing.T) {
	data := asm.PackWordsBin([]uint32{0x123456})
	want := []byte{0x56, 0x34, 0x12}
	if len(data) != 3 {
		t.Fatalf("len = %d, want 3", len(data))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, data[i], want[i])
		}
	}
}

// Pack round trip: reading back the triplets yields the original
// words masked to 24 bits.
func TestPackWordsBin_RoundTrip(t *testing.T) {
	words := []uint32{0, 1, 0xFFFFFF, 0x123456, 0xFF000001}
	data := asm.PackWordsBin(words)
	back, err := asm.UnpackWordsBin(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != len(words) {
		t.Fatalf("len = %d, want %d", len(back), len(words))
	}
	for i, w := range words {
		if back[i] != w&0xFFFFFF {
			t.Errorf("word %d = %#x, want %#x", i, back[i], w&0xFFFFFF)
		}
	}
}

func TestUnpackWordsBin_RejectsPartialTriplet(t *testing.T) {
	if _, err := asm.UnpackWordsBin([]byte{1, 2}); err == nil {
		t.Error("partial triplet must be rejected")
	}
}

func TestPackWordsHex(t *testing.T) {
	out := asm.PackWordsHex([]uint32{0xABC, 0xFFFFFF, 0})
	want := "000ABC\nFFFFFF\n000000\n"
	if out != want {
		t.Errorf("hex = %q, want %q", out, want)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("hex output must end with a newline")
	}
}

func TestPackWordsHex_Empty(t *testing.T) {
	if out := asm.PackWordsHex(nil); out != "" {
		t.Errorf("empty input should produce empty output, got %q", out)
	}
}
