package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseConvert,
				Kind:   KindOverflow,
				Path:   []string{"[0]", "items", "[2]"},
				Type:   "int32",
				Detail: "cannot convert",
			},
			contains: []string{"[convert]", "overflow", "[0].items.[2]", "int32", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDispatch,
				Kind:  KindUseAfterDestroy,
			},
			contains: []string{"[dispatch]", "use_after_destroy"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseSetup,
				Kind:   KindEngine,
				Detail: "attach",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[setup]", "engine", "attach", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseDeserialize,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause through chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseComplete,
		Kind:  KindUnknownRequest,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseComplete, Kind: KindUnknownRequest}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseDispatch, Kind: KindUnknownRequest}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseComplete, Kind: KindInvalidData}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, &Error{Kind: KindUnknownRequest}) {
		t.Error("empty phase target should match any phase")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !errors.Is(wrapped, &Error{Phase: PhaseComplete, Kind: KindUnknownRequest}) {
		t.Error("errors.Is should see through fmt wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseConvert, KindTypeMismatch).
		Path("args", "[1]").
		Type("function").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "int", "function").
		Build()

	if err.Phase != PhaseConvert {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseConvert)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "args" || err.Path[1] != "[1]" {
		t.Errorf("Path = %v, want [args [1]]", err.Path)
	}
	if err.Type != "function" {
		t.Errorf("Type = %v, want 'function'", err.Type)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected int, got function" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseDeserialize, []string{"val"}, uint64(1)<<63, "int64")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if !strings.Contains(err.Detail, "int64") {
			t.Errorf("Detail = %q, should name target type", err.Detail)
		}
	})

	t.Run("DepthExceeded", func(t *testing.T) {
		err := DepthExceeded(PhaseConvert, nil, 64)
		if err.Kind != KindDepthExceeded || err.Value != 64 {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("InvalidEnum", func(t *testing.T) {
		err := InvalidEnum(PhaseTranslate, []string{"button"}, 9, "MouseButton")
		if err.Kind != KindInvalidEnum {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidEnum)
		}
	})

	t.Run("Misuse formats args", func(t *testing.T) {
		err := Misuse(PhaseComplete, KindUnknownRequest, "request %d", 7)
		if err.Detail != "request 7" {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseScript, "function", "onEvent")
		if !strings.Contains(err.Error(), `"onEvent"`) {
			t.Errorf("message %q should quote the name", err.Error())
		}
	})
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		misuse      bool
		defect      bool
		codec       bool
		deserialize bool
		conversion  bool
		setup       bool
	}{
		{name: "use after destroy", err: Misuse(PhaseDispatch, KindUseAfterDestroy, "x"), misuse: true},
		{name: "unknown request", err: Misuse(PhaseComplete, KindUnknownRequest, "x"), misuse: true},
		{name: "unwritten future", err: New(PhaseCallback, KindUnwrittenFuture).Build(), defect: true},
		{name: "bad bytes", err: InvalidData(PhaseDeserialize, nil, "truncated"), codec: true, deserialize: true},
		{name: "unrepresentable", err: Unsupported(PhaseConvert, nil, "function"), codec: true, conversion: true},
		{name: "setup", err: New(PhaseSetup, KindInvalidHandle).Build(), setup: true},
		{name: "wrapped misuse", err: fmt.Errorf("ctx: %w", Misuse(PhaseSetup, KindAlreadyAttached, "x")), misuse: true, setup: true},
		{name: "plain error", err: errors.New("plain")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMisuse(tt.err); got != tt.misuse {
				t.Errorf("IsMisuse = %v, want %v", got, tt.misuse)
			}
			if got := IsDefect(tt.err); got != tt.defect {
				t.Errorf("IsDefect = %v, want %v", got, tt.defect)
			}
			if got := IsCodec(tt.err); got != tt.codec {
				t.Errorf("IsCodec = %v, want %v", got, tt.codec)
			}
			if got := IsDeserialize(tt.err); got != tt.deserialize {
				t.Errorf("IsDeserialize = %v, want %v", got, tt.deserialize)
			}
			if got := IsConversion(tt.err); got != tt.conversion {
				t.Errorf("IsConversion = %v, want %v", got, tt.conversion)
			}
			if got := IsSetup(tt.err); got != tt.setup {
				t.Errorf("IsSetup = %v, want %v", got, tt.setup)
			}
		})
	}
}
