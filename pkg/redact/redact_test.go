package redact

import (
	"strings"
	"testing"
)

func TestRedactDisabled(t *testing.T) {
	SetEnabled(false)
	in := "email a@b.com and phone +62 812 3456 7890"
	if got := Text(in); got != in {
		t.Fatalf("expected no redaction, got %q", got)
	}
}

func TestRedactEnabled(t *testing.T) {
	SetEnabled(true)
	in := "email a@b.com and phone +62 812 3456 7890"
	got := Text(in)
	if got == in {
		t.Fatalf("expected redaction")
	}
	if want := "[REDACTED_EMAIL]"; !strings.Contains(got, want) {
		t.Fatalf("expected %q in output", want)
	}
	if want := "[REDACTED_PHONE]"; !strings.Contains(got, want) {
		t.Fatalf("expected %q in output", want)
	}
}

func TestRedactKeys(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	got := Text("la clave era sk-abcdefghijklmnop1234 y siguio el programa")
	if strings.Contains(got, "sk-abcdefghijklmnop1234") {
		t.Fatalf("key survived redaction: %q", got)
	}
	if !strings.Contains(got, "[REDACTED_KEY]") {
		t.Fatalf("expected key marker, got %q", got)
	}
}

func TestPreviewTruncates(t *testing.T) {
	SetEnabled(false)
	long := strings.Repeat("ñ", 60)
	got := Preview(long, 20)
	if want := strings.Repeat("ñ", 20) + "..."; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := Preview("corto", 20); got != "corto" {
		t.Fatalf("short input altered: %q", got)
	}
}
