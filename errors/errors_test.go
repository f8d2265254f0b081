package errors

import (
	"errors"
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
				Phase:  PhaseDerive,
				Kind:   KindOutOfBounds,
				Path:   []string{"drawables", "vertex-positions"},
				Detail: "span exceeds storage",
			},
			contains: []string{"[derive]", "out_of_bounds", "drawables.vertex-positions", "span exceeds storage"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindInvalidMoc,
			},
			contains: []string{"[decode]", "invalid_moc"},
		},
		{
			name: "unsupported version carries both values",
			err:  UnsupportedMocVersion(99, 4),
			contains: []string{
				"[decode]", "unsupported_version", "given 99", "latest supported 4",
			},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[alloc]", "allocation", "memory full", "caused by", "underlying error"},
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
	err := Wrap(PhaseDecode, KindInvalidMoc, cause, "decode moc")

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_Is_MatchesPhaseAndKind(t *testing.T) {
	err := UnsupportedMocVersion(99, 4)

	if !errors.Is(err, UnsupportedMocVersion(0, 0)) {
		t.Error("Is should match on phase+kind regardless of version values")
	}
	if errors.Is(err, InvalidMoc("")) {
		t.Error("Is should not match a different kind")
	}
	if errors.Is(err, errors.New("unsupported_version")) {
		t.Error("Is should not match a plain error")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseHost, KindHostContract).
		Path("Model", "fromMoc").
		Detail("member %q is not callable", "fromMoc").
		Build()

	if err.Phase != PhaseHost || err.Kind != KindHostContract {
		t.Fatalf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	msg := err.Error()
	for _, s := range []string{"Model.fromMoc", `"fromMoc"`, "not callable"} {
		if !strings.Contains(msg, s) {
			t.Errorf("error message %q does not contain %q", msg, s)
		}
	}
}

func TestConvenienceConstructors(t *testing.T) {
	if e := AllocationFailed(1024, 64); !strings.Contains(e.Error(), "1024") || !strings.Contains(e.Error(), "64") {
		t.Errorf("AllocationFailed message missing layout: %q", e.Error())
	}
	if e := HostContract([]string{"Version"}, "missing member"); e.Kind != KindHostContract {
		t.Errorf("HostContract kind = %s", e.Kind)
	}
	if e := OutOfBounds(PhaseView, nil, 128, 64); !strings.Contains(e.Error(), "offset 128") {
		t.Errorf("OutOfBounds message missing offset: %q", e.Error())
	}
	if e := Released(PhaseView, "model storage"); !strings.Contains(e.Error(), "after release") {
		t.Errorf("Released message: %q", e.Error())
	}
}
