package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tienlenchat/internal/chat"
)

func runCapture(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_JSONFromArgs(t *testing.T) {
	code, stdout, stderr := runCapture(t, "", "-viewer", "bob", "hey", "@Bob", "https://x.io")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	var out output
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}
	kinds := make([]chat.Kind, 0, len(out.Segments))
	for _, seg := range out.Segments {
		kinds = append(kinds, seg.Kind)
	}
	want := []chat.Kind{chat.KindText, chat.KindMention, chat.KindText, chat.KindURL}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", kinds, want)
		}
	}
	if !out.MentionsViewer || len(out.Mentions) != 1 || out.Mentions[0] != "Bob" {
		t.Fatalf("unexpected mentions %+v", out)
	}
}

func TestRun_TextFromStdin(t *testing.T) {
	code, stdout, _ := runCapture(t, "gg @alice see https://x.io\n", "-format", "text", "-viewer", "alice")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if want := "gg **@alice** see <https://x.io>\n"; stdout != want {
		t.Fatalf("stdout = %q, want %q", stdout, want)
	}
}

func TestRun_HTML(t *testing.T) {
	code, stdout, _ := runCapture(t, "", "-format", "html", "<b>@x</b>")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if want := "&lt;b&gt;<span class=\"mention\">@x</span>&lt;/b&gt;\n"; stdout != want {
		t.Fatalf("stdout = %q, want %q", stdout, want)
	}
}

func TestRun_EnvFileLimitsLength(t *testing.T) {
	env := filepath.Join(t.TempDir(), "chat.env")
	if err := os.WriteFile(env, []byte("tienlen_chat_max_message_length=3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runCapture(t, "", "-env", env, "four")
	if code != 1 || !strings.Contains(stderr, "too long") {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
}

func TestRun_BadFlags(t *testing.T) {
	if code, _, _ := runCapture(t, "", "-format", "xml", "hi"); code != 2 {
		t.Fatalf("unknown format exit code = %d, want 2", code)
	}
	if code, _, _ := runCapture(t, "", "-nope"); code != 2 {
		t.Fatalf("unknown flag exit code = %d, want 2", code)
	}
	if code, _, _ := runCapture(t, "", "-env", filepath.Join(t.TempDir(), "missing.env"), "hi"); code != 1 {
		t.Fatalf("missing env file exit code = %d, want 1", code)
	}
}
