package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		in     string
		region string
		want   string
	}{
		{"020 7946 0958", "GB", "+442079460958"},
		{"+44 20 7946 0958", "", "+442079460958"},
		{"  not a number ", "GB", "not a number"},
		{"", "GB", ""},
	}

	for _, tc := range tests {
		if got := NormalizeE164(tc.in, tc.region); got != tc.want {
			t.Errorf("NormalizeE164(%q, %q) = %q, want %q", tc.in, tc.region, got, tc.want)
		}
	}
}
