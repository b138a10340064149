package chunker

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	s := New(1200, 200)

	if got := s.Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
	if got := s.Split("   \n\t  "); got != nil {
		t.Errorf("Split(whitespace) = %v, want nil", got)
	}
}

func TestSplit_ShortText(t *testing.T) {
	s := New(1200, 200)

	got := s.Split("  hello world  ")
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 chunk, got %d", len(got))
	}
	if got[0] != "hello world" {
		t.Errorf("chunk = %q, want trimmed input", got[0])
	}
}

func TestSplit_SizeBound(t *testing.T) {
	s := New(100, 20)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("the quick brown fox jumps over the lazy dog ")
	}
	chunks := s.Split(b.String())

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d is %d chars, exceeds size bound", i, len(c))
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s := New(40, 0)

	para1 := "First paragraph stays whole."
	para2 := "Second paragraph stays whole."
	chunks := s.Split(para1 + "\n\n" + para2)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != para1 || chunks[1] != para2 {
		t.Errorf("chunks = %v, want paragraph-aligned split", chunks)
	}
}

func TestSplit_Overlap(t *testing.T) {
	s := New(40, 15)

	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda"
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	// The tail of each chunk should reappear at the head of the next.
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		lastWord := prevWords[len(prevWords)-1]
		if !strings.Contains(chunks[i], lastWord) {
			t.Errorf("chunk %d does not overlap with chunk %d: %q then %q",
				i-1, i, chunks[i-1], chunks[i])
		}
	}
}

func TestSplit_HardSplitLongToken(t *testing.T) {
	s := New(50, 10)

	// A single unbroken run longer than the chunk size must be cut at
	// character boundaries rather than dropped.
	token := strings.Repeat("x", 130)
	chunks := s.Split(token)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	var rejoined strings.Builder
	for i, c := range chunks {
		if len(c) > 50 {
			t.Errorf("chunk %d is %d chars, exceeds size bound", i, len(c))
		}
		rejoined.WriteString(c)
	}
	if rejoined.String() != token {
		t.Error("hard split lost characters")
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s := New(80, 20)
	text := "One sentence here. Another sentence there. A third one follows. " +
		"And a fourth to push past the size target for good measure."

	first := s.Split(text)
	second := s.Split(text)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
