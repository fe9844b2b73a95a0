package abienc

import (
	"math/big"
	"strings"
	"testing"
)

func TestEncodeAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"checksummed", "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174", "0000000000000000000000002791bca1f2de4661ed88a30c99a7a9449aa84174"},
		{"lowercase no prefix", "2791bca1f2de4661ed88a30c99a7a9449aa84174", "0000000000000000000000002791bca1f2de4661ed88a30c99a7a9449aa84174"},
		{"zero", "0x0000000000000000000000000000000000000000", strings.Repeat("0", 64)},
		{"uppercase", "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1111", "000000000000000000000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1111"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeAddress(tt.in)
			if len(got) != 64 {
				t.Fatalf("len = %d, want 64", len(got))
			}
			if got != tt.want {
				t.Errorf("EncodeAddress(%q) = %s, want %s", tt.in, got, tt.want)
			}
			if got != strings.ToLower(got) {
				t.Errorf("output is not lowercase: %s", got)
			}
		})
	}
}

func TestEncodeUint256String(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", strings.Repeat("0", 64)},
		{"1", strings.Repeat("0", 63) + "1"},
		{"128", strings.Repeat("0", 62) + "80"},
		{"1000000", strings.Repeat("0", 59) + "f4240"},
		{"", strings.Repeat("0", 64)},
		{"abc", strings.Repeat("0", 64)},
		{"-5", strings.Repeat("0", 64)},
		{"1.5", strings.Repeat("0", 64)},
		{" 42 ", strings.Repeat("0", 62) + "2a"},
	}
	for _, tt := range tests {
		if got := EncodeUint256String(tt.in); got != tt.want {
			t.Errorf("EncodeUint256String(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestUint256WordTruncates(t *testing.T) {
	// 2^256 + 7 keeps only the low 256 bits.
	v := new(big.Int).Lsh(big.NewInt(1), 256)
	v.Add(v, big.NewInt(7))
	if got, want := EncodeUint256(v), strings.Repeat("0", 63)+"7"; got != want {
		t.Errorf("EncodeUint256(2^256+7) = %s, want %s", got, want)
	}
	if got := EncodeUint256(nil); got != strings.Repeat("0", 64) {
		t.Errorf("EncodeUint256(nil) = %s", got)
	}
}

func TestEncodeBytes32(t *testing.T) {
	full := "0xABCDEF0000000000000000000000000000000000000000000000000000000001"
	if got, want := EncodeBytes32(full), "abcdef0000000000000000000000000000000000000000000000000000000001"; got != want {
		t.Errorf("full = %s, want %s", got, want)
	}
	if got, want := EncodeBytes32("0x1234"), strings.Repeat("0", 60)+"1234"; got != want {
		t.Errorf("short = %s, want %s", got, want)
	}
	long := "ff" + strings.Repeat("1", 64)
	if got, want := EncodeBytes32(long), strings.Repeat("1", 64); got != want {
		t.Errorf("long = %s, want %s", got, want)
	}
}

func TestMaxUint256Word(t *testing.T) {
	if got := MaxUint256Word().Hex(); got != strings.Repeat("f", 64) {
		t.Errorf("MaxUint256Word = %s", got)
	}
}

func TestPadRight(t *testing.T) {
	for _, n := range []int{0, 1, 31, 32, 33, 85} {
		got := PadRight(make([]byte, n))
		if len(got)%WordSize != 0 {
			t.Errorf("PadRight(%d) len = %d", n, len(got))
		}
		if len(got) < n || len(got)-n >= WordSize {
			t.Errorf("PadRight(%d) over-padded to %d", n, len(got))
		}
	}
}
