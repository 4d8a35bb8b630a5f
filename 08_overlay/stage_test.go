package overlay

import (
	"strings"
	"testing"

	"shortform-pipeline/config"
)

func TestEscapeDrawText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"it's 50%", `it\'s 50\%`},
		{"a:b", `a\:b`},
		{`back\slash`, `back\\slash`},
	}
	for _, tc := range cases {
		if got := escapeDrawText(tc.in); got != tc.want {
			t.Errorf("escapeDrawText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDrawTextFilter(t *testing.T) {
	cfg := config.Default()
	cfg.Overlay.FontSize = 60
	cfg.Overlay.FadeDuration = 0.5
	r := New(cfg)

	f := r.drawText("Wait for it", 0, 3)
	for _, want := range []string{
		"drawtext=text='Wait for it'",
		"fontsize=60",
		"between(t,0",
		"x=(w-text_w)/2",
	} {
		if !strings.Contains(f, want) {
			t.Errorf("filter missing %q:\n%s", want, f)
		}
	}
}

func TestDrawTextClampsNegativeStart(t *testing.T) {
	cfg := config.Default()
	r := New(cfg)
	f := r.drawText("end card", -2, 1)
	if strings.Contains(f, "between(t,-") {
		t.Errorf("negative start not clamped:\n%s", f)
	}
}
