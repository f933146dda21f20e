package sanitize

import "testing"

func TestLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  Unit 4,\t Dock  Road ", want: "Unit 4, Dock Road"},
		{in: "<b>Pat</b> Smith", want: "Pat Smith"},
		{in: "&lt;script&gt;alert(1)&lt;/script&gt;Robin", want: "alert(1)Robin"},
		{in: "Line\nbreak", want: "Line break"},
		{in: "Unit 4\r\nHigh Street", want: "Unit 4 High Street"},
		{in: "bell\x07", want: "bell"},
	}
	for _, tt := range tests {
		if got := Line(tt.in); got != tt.want {
			t.Errorf("Line(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  <i>Loading bay at rear</i> ", want: "Loading bay at rear"},
		{in: "Pallet 1  \r\nPallet 2", want: "Pallet 1\nPallet 2"},
		{in: "Access\n\n\n\nCode 1234", want: "Access\n\nCode 1234"},
		{in: "\n\nfirst", want: "first"},
		{in: "<b></b>", want: ""},
	}
	for _, tt := range tests {
		if got := Text(tt.in); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLinePtr(t *testing.T) {
	if LinePtr(nil) != nil {
		t.Fatalf("expected nil")
	}
	in := " Acme  Ltd "
	if got := LinePtr(&in); *got != "Acme Ltd" {
		t.Fatalf("unexpected %q", *got)
	}
}
