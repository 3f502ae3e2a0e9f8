package asm

import (
	"fmt"
	"strings"
)

// PackWordsBin serializes words as raw binary, three bytes per
// 24-bit word, little-endian: [7:0], [15:8], [23:16]. No header, no
// footer.
func PackWordsBin(words []uint32) []byte {
	out := make([]byte, 0, len(words)*3)
	for _, w := range words {
		w &= 0xFFFFFF
		out = append(out, byte(w), byte(w>>8), byte(w>>16))
	}
	return out
}

// PackWordsHex formats one uppercase six-digit hex word per line,
// with a trailing newline.
func PackWordsHex(words []uint32) string {
	var sb strings.Builder
	for _, w := range words {
		fmt.Fprintf(&sb, "%06X\n", w&0xFFFFFF)
	}
	return sb.String()
}

// UnpackWordsBin reads back a little-endian triplet stream. Used by
// the inspector and tests; trailing partial triplets are rejected.
func UnpackWordsBin(data []byte) ([]uint32, error) {
	if len(data)%3 != 0 {
		return nil, fmt.Errorf("binary length %d is not a multiple of 3", len(data))
	}
	words := make([]uint32, 0, len(data)/3)
	for i := 0; i < len(data); i += 3 {
		words = append(words, uint32(data[i])|uint32(data[i+1])<<8|uint32(data[i+2])<<16)
	}
	return words, nil
}
