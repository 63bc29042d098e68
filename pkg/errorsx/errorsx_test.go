package errorsx

import "testing"

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonLLMGenerate)
	if Reason(err) != ReasonLLMGenerate {
		t.Fatalf("expected reason %s, got %s", ReasonLLMGenerate, Reason(err))
	}
	if !HasReason(err, ReasonLLMGenerate) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonTTSSynthesize)
	second := Wrap(first, ReasonLLMGenerate)
	if Reason(second) != ReasonTTSSynthesize {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestNilAndUnknown(t *testing.T) {
	if Wrap(nil, ReasonCacheRead) != nil {
		t.Fatalf("expected nil")
	}
	if Reason(assertErr{}) != ReasonUnknown {
		t.Fatalf("expected unknown reason")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
