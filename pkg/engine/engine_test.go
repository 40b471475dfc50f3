package engine

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	res, err := eng.Evaluate("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatal("expected non-nil result")
	}
	if res.Grid != nil || res.Shape != nil || res.Threshold != nil {
		t.Errorf("empty source declared something: %+v", res)
	}
}

func TestEvaluateWhitespaceOnly(t *testing.T) {
	eng := NewEngine()

	res, err := eng.Evaluate("   \n\t  \n  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatal("expected non-nil result")
	}
}

func TestEvaluatePlainExpression(t *testing.T) {
	eng := NewEngine()

	// Valid Lisp that declares no geometry.
	res, err := eng.Evaluate("(+ 1 2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Grid != nil || res.Shape != nil || res.Threshold != nil {
		t.Errorf("arithmetic declared geometry: %+v", res)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	res, err := eng.Evaluate("(circle :r 12")
	if err == nil {
		t.Fatal("expected error for unmatched paren")
	}
	if res != nil {
		t.Fatal("expected nil result on syntax error")
	}
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("error = %T, want *EvalError", err)
	}
	if evalErr.Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	res, err := eng.Evaluate("(+ 1 no-such-variable)")
	if err == nil {
		t.Fatal("expected error for undefined symbol")
	}
	if res != nil {
		t.Fatal("expected nil result on eval error")
	}
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("error = %T, want *EvalError", err)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()

	var first float64
	for i := 0; i < 5; i++ {
		res, err := eng.Evaluate("(solid (circle :x 3 :y 4 :r 5))")
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if res.Shape == nil {
			t.Fatalf("iteration %d: expected a shape", i)
		}
		v := res.Shape.SDF(7.5, -2)
		if i == 0 {
			first = v
		} else if v != first {
			t.Errorf("iteration %d: SDF = %g, want %g", i, v, first)
		}
	}
}

func TestEvalErrorFormatting(t *testing.T) {
	e := &EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := &EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not mention one, got: %s", e2.Error())
	}
}

func TestParseScriptError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := parseScriptError(errString(tt.msg))
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

func TestWaitWithTimeout(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(1)
	ch := make(chan evalResult) // never sends

	_, err := waitWithTimeout(ch, 1, &mu, &gen, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error message, got: %v", err)
	}
}

func TestWaitWithTimeoutDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2) // a newer evaluation has started

	ch := make(chan evalResult, 1)
	ch <- evalResult{res: &Result{}}

	_, err := waitWithTimeout(ch, 1, &mu, &gen, time.Second)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
