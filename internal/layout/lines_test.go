package layout

import (
	"testing"

	"github.com/dvloznov/redot2koinly/internal/ocr"
)

func tok(text string, x, y, w float64, conf float64) ocr.Token {
	return ocr.Token{Text: text, X: x, Y: y, Width: w, Height: 30, Confidence: conf}
}

func TestGroupLinesEmpty(t *testing.T) {
	if lines := GroupLines(nil, DefaultYTolerance); lines != nil {
		t.Errorf("expected nil lines for empty token set, got %v", lines)
	}
}

func TestGroupLinesClustersByVerticalCenter(t *testing.T) {
	tokens := []ocr.Token{
		tok("right", 600, 105, 100, 0.9),
		tok("left", 100, 100, 100, 0.9),
		tok("below", 100, 200, 100, 0.9),
	}

	lines := GroupLines(tokens, DefaultYTolerance)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if got := lines[0].Text(); got != "left right" {
		t.Errorf("line 0 text = %q, want %q (x-order within line)", got, "left right")
	}
	if got := lines[1].Text(); got != "below" {
		t.Errorf("line 1 text = %q, want %q", got, "below")
	}
	if lines[0].Y >= lines[1].Y {
		t.Errorf("lines not ordered top to bottom: %v >= %v", lines[0].Y, lines[1].Y)
	}
}

func TestGroupLinesToleranceBoundary(t *testing.T) {
	tokens := []ocr.Token{
		tok("a", 100, 100, 50, 0.9),
		tok("b", 200, 130, 50, 0.9), // exactly at tolerance: same line
		tok("c", 300, 161, 50, 0.9), // one past: new line
	}

	lines := GroupLines(tokens, DefaultYTolerance)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if got := lines[0].Text(); got != "a b" {
		t.Errorf("line 0 text = %q, want %q", got, "a b")
	}
}

func TestGroupLinesMeanY(t *testing.T) {
	tokens := []ocr.Token{
		tok("a", 100, 100, 50, 0.9),
		tok("b", 200, 120, 50, 0.9),
	}

	lines := GroupLines(tokens, DefaultYTolerance)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Y != 110 {
		t.Errorf("line Y = %v, want 110", lines[0].Y)
	}
}
