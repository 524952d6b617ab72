package process

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func TestSplitArguments(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"single", "status", []string{"status"}},
		{"multiple", "log --oneline -n 5", []string{"log", "--oneline", "-n", "5"}},
		{"double quoted", `commit -m "fix the build"`, []string{"commit", "-m", "fix the build"}},
		{"single quoted", `-c 'echo $HOME'`, []string{"-c", "echo $HOME"}},
		{"escaped quote", `"say \"hi\""`, []string{`say "hi"`}},
		{"extra whitespace", "  a   b  ", []string{"a", "b"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SplitArguments(tc.input)
			if err != nil {
				t.Fatalf("SplitArguments(%q) error = %v", tc.input, err)
			}
			if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
				t.Errorf("SplitArguments(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestQuoteArgument_RoundTrip(t *testing.T) {
	inputs := []string{
		"plain",
		"with space",
		`back\slash`,
		`double "quote"`,
		"single 'quote'",
		"/tmp/repo #1",
		"tab\there",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := SplitArguments("prefix " + QuoteArgument(in))
			if err != nil {
				t.Fatalf("SplitArguments error = %v", err)
			}
			if len(got) != 2 || got[1] != in {
				t.Errorf("round trip of %q = %q", in, got)
			}
		})
	}
}

func TestDefaultStartInfo(t *testing.T) {
	cfg, err := DefaultStartInfo("git")(`clone "a b" c`, "/work")
	if err != nil {
		t.Fatalf("DefaultStartInfo error = %v", err)
	}

	if cfg.Path != "git" || cfg.Dir != "/work" || cfg.Arguments != `clone "a b" c` {
		t.Errorf("config = %+v", cfg)
	}
	if strings.Join(cfg.Args, "|") != "clone|a b|c" {
		t.Errorf("Args = %q", cfg.Args)
	}
	if cfg.UseShell {
		t.Error("UseShell should be false")
	}
	if !cfg.CreateNoWindow || cfg.ErrorDialog || !cfg.LoadUserProfile {
		t.Errorf("window/dialog/profile defaults wrong: %+v", cfg)
	}
	if !cfg.RedirectStdin || !cfg.RedirectStdout || !cfg.RedirectStderr {
		t.Error("all three streams should be redirected")
	}
	if cfg.OutputEncoding != unicode.UTF8 || cfg.ErrorEncoding != unicode.UTF8 {
		t.Error("streams should decode as UTF-8")
	}
	if cfg.WindowStyle != WindowNormal {
		t.Errorf("WindowStyle = %v, want normal", cfg.WindowStyle)
	}
	if cfg.CommandLine() != `git clone "a b" c` {
		t.Errorf("CommandLine() = %q", cfg.CommandLine())
	}
}

func TestDefaultStartInfo_UnterminatedQuote(t *testing.T) {
	if _, err := DefaultStartInfo("git")(`commit -m "oops`, "."); err == nil {
		t.Error("expected an error for an unterminated quote")
	}
}

func TestDefaultProcess(t *testing.T) {
	cfg, _ := DefaultStartInfo("echo")("hello world", "/tmp")
	h, err := DefaultProcess(cfg)
	if err != nil {
		t.Fatalf("DefaultProcess error = %v", err)
	}

	if !h.EnableExitEvents {
		t.Error("EnableExitEvents should default to true")
	}
	if h.Config != cfg {
		t.Error("handle should carry its start configuration")
	}
	if h.Cmd.Dir != "/tmp" {
		t.Errorf("Cmd.Dir = %q", h.Cmd.Dir)
	}
	if got := strings.Join(h.Cmd.Args[1:], "|"); got != "hello|world" {
		t.Errorf("Cmd.Args = %q", h.Cmd.Args)
	}
	if h.Cmd.Env != nil {
		t.Error("Cmd.Env should inherit the environment when no extra variables are set")
	}
	if h.Pid() != -1 {
		t.Errorf("Pid() = %d before start", h.Pid())
	}
}

func TestDefaultProcess_Errors(t *testing.T) {
	if _, err := DefaultProcess(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := DefaultProcess(&StartConfig{Path: "echo", UseShell: true}); err == nil {
		t.Error("expected error when shell execution is requested")
	}
}
