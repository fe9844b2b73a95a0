package types

import "testing"

func TestUSDCToBaseUnits(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1", "1000000", false},
		{"1.5", "1500000", false},
		{" 0.000001 ", "1", false},
		{"0.0000019", "1", false},
		{"0", "0", false},
		{"1000000", "1000000000000", false},
		{"-1", "", true},
		{"abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := USDCToBaseUnits(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("USDCToBaseUnits(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("USDCToBaseUnits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBaseUnitsToUSDC(t *testing.T) {
	d, err := BaseUnitsToUSDC("1500000")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "1.5" {
		t.Errorf("BaseUnitsToUSDC = %s, want 1.5", d)
	}
	if _, err := BaseUnitsToUSDC("x"); err == nil {
		t.Error("expected error")
	}
}
