package plan

import (
	"strings"
	"testing"
	"time"
)

func TestFileNameDerivesFromStem(t *testing.T) {
	if got := FileName("EMAIL_request.md"); got != "PLAN_EMAIL_request.md" {
		t.Fatalf("FileName = %q", got)
	}
	if got := FileName("nodot"); got != "PLAN_nodot.md" {
		t.Fatalf("FileName without extension = %q", got)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	content, err := Render("EMAIL_request.md", now)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	meta, body, err := ParseFrontMatter(content)
	if err != nil {
		t.Fatalf("ParseFrontMatter returned error: %v", err)
	}
	if meta.SourceFile != "EMAIL_request.md" {
		t.Fatalf("source file = %q", meta.SourceFile)
	}
	if meta.Status != StatusPending {
		t.Fatalf("status = %q", meta.Status)
	}
	if !meta.Created.Equal(now) {
		t.Fatalf("created = %s, want %s", meta.Created, now)
	}
	text := string(body)
	for _, want := range []string{
		"# Action Plan: EMAIL_request",
		"- [ ] Analyze the request",
		"- [ ] Check Company_Handbook.md for applicable rules",
		"## Approval Required?",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestParseFrontMatterRejectsUnfencedDocs(t *testing.T) {
	if _, _, err := ParseFrontMatter([]byte("# just markdown\n")); err != ErrMissingFrontMatter {
		t.Fatalf("expected ErrMissingFrontMatter, got %v", err)
	}
	if _, _, err := ParseFrontMatter([]byte("---\ncreated: x\n")); err != ErrMalformedFrontMatter {
		t.Fatalf("expected ErrMalformedFrontMatter, got %v", err)
	}
}

func TestParseFrontMatterNormalizesCRLF(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	content, err := Render("a.md", now)
	if err != nil {
		t.Fatal(err)
	}
	windows := strings.ReplaceAll(string(content), "\n", "\r\n")
	meta, _, err := ParseFrontMatter([]byte(windows))
	if err != nil {
		t.Fatalf("ParseFrontMatter(CRLF) returned error: %v", err)
	}
	if meta.SourceFile != "a.md" {
		t.Fatalf("source file = %q", meta.SourceFile)
	}
}
