package textutil

import "testing"

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-03-01", "2024-03-01", false},
		{"01.03.2024", "2024-03-01", false},
		{"01.03.24", "2024-03-01", false},
		{"01/03/2024", "2024-03-01", false},
		{"01-03-2024", "2024-03-01", false},
		{"31/12/2023", "2023-12-31", false},
		{"2024-03-01 10:31:12", "2024-03-01", false},
		{"5 Mar 2024", "2024-03-05", false},
		{"05 Mar 2024", "2024-03-05", false},
		{"5 March 2024", "2024-03-05", false},
		{"5 fev 2024", "2024-02-05", false},
		{"12 ago 2023", "2023-08-12", false},
		{"  2024-03-01  ", "2024-03-01", false},
		{"", "", true},
		{"soon", "", true},
		{"2024-02-31", "", true},
		{"32.01.2024", "", true},
		{"00.03.2024", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSerialDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"45352", "2024-03-01", true},
		{"44927", "2023-01-01", true},
		{"20000", "1954-10-03", true},
		{"80000", "2119-01-11", true},
		{"19999", "", false}, // below the plausible range
		{"80001", "", false},
		{"4.50", "", false}, // an amount, not a date
		{"-45352", "", false},
		{"", "", false},
		{"2024-03-01", "", false},
	}

	for _, tt := range tests {
		got, ok := SerialDate(tt.in)
		if ok != tt.ok {
			t.Errorf("SerialDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("SerialDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
