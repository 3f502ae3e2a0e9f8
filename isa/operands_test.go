package isa_test

import (
	"testing"

	"github.com/vanbako/henad/isa"
)

func TestParseDataReg(t *testing.T) {
	tests := []struct {
		token string
		want  uint32
		ok    bool
	}{
		{"DR0", 0, true},
		{"dr15", 15, true},
		{" DR7 ", 7, true},
		{"DR16", 0, false},
		{"AR1", 0, false},
		{"DRx", 0, false},
	}
	for _, tt := range tests {
		got, err := isa.ParseDataReg(tt.token)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseDataReg(%q) = %d, %v; want %d", tt.token, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("ParseDataReg(%q) succeeded, want error", tt.token)
		}
	}
}

func TestParseAddrReg(t *testing.T) {
	if got, err := isa.ParseAddrReg("(AR2)"); err != nil || got != 2 {
		t.Errorf("ParseAddrReg((AR2)) = %d, %v", got, err)
	}
	if _, err := isa.ParseAddrReg("AR4"); err == nil {
		t.Error("AR4 should be out of range")
	}
}

func TestParseStatusReg_Aliases(t *testing.T) {
	tests := map[string]uint32{"LR": 0, "SSP": 1, "FL": 2, "PC": 3, "SR2": 2, "(sr3)": 3}
	for token, want := range tests {
		got, err := isa.ParseStatusReg(token)
		if err != nil || got != want {
			t.Errorf("ParseStatusReg(%q) = %d, %v; want %d", token, got, err, want)
		}
	}
}

func TestParseCond(t *testing.T) {
	// RA and AL alias the always code.
	for _, token := range []string{"RA", "AL", "al"} {
		if got, err := isa.ParseCond(token); err != nil || got != 0 {
			t.Errorf("ParseCond(%q) = %d, %v; want 0", token, got, err)
		}
	}
	if got, _ := isa.ParseCond("AE"); got != 0xA {
		t.Errorf("ParseCond(AE) = %#x, want 0xA", got)
	}
	if _, err := isa.ParseCond("XX"); err == nil {
		t.Error("ParseCond(XX) should fail")
	}
}

func TestParseHL(t *testing.T) {
	for _, token := range []string{"H", "HI", "high"} {
		if got, _ := isa.ParseHL(token); got != 1 {
			t.Errorf("ParseHL(%q) = %d, want 1", token, got)
		}
	}
	for _, token := range []string{"L", "LO", "low"} {
		if got, _ := isa.ParseHL(token); got != 0 {
			t.Errorf("ParseHL(%q) = %d, want 0", token, got)
		}
	}
}

func TestParseImm_Bases(t *testing.T) {
	tests := []struct {
		token string
		want  int64
	}{
		{"#42", 42},
		{"0x1F", 31},
		{"#0X1f", 31},
		{"0b1010", 10},
		{"0o17", 15},
		{"-5", -5},
		{"#-0x10", -16},
	}
	for _, tt := range tests {
		got, err := isa.ParseImm(tt.token)
		if err != nil || got != tt.want {
			t.Errorf("ParseImm(%q) = %d, %v; want %d", tt.token, got, err, tt.want)
		}
	}
	if _, err := isa.ParseImm("12ab"); err == nil {
		t.Error("ParseImm(12ab) should fail")
	}
}
