package memory

import (
	stderrors "errors"
	"testing"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/errors"
)

func TestView_AliasesBlock(t *testing.T) {
	b, err := Alloc(64, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	vals, err := View[float32](b, 8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 4 {
		t.Fatalf("len = %d, want 4", len(vals))
	}

	vals[0] = 1.5
	again, err := View[float32](b, 8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if again[0] != 1.5 {
		t.Errorf("view does not alias block: got %v", again[0])
	}
}

func TestView_StructElements(t *testing.T) {
	b, err := Alloc(64, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	vecs, err := View[cubism.Vector2](b, 0, 8)
	if err != nil {
		t.Fatal(err)
	}
	vecs[7] = cubism.Vector2{X: 3, Y: 4}

	floats, err := View[float32](b, 0, 16)
	if err != nil {
		t.Fatal(err)
	}
	if floats[14] != 3 || floats[15] != 4 {
		t.Errorf("Vector2 layout: floats[14:16] = %v, %v", floats[14], floats[15])
	}
}

func TestView_Bounds(t *testing.T) {
	b, err := Alloc(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	if _, err := View[float32](b, 0, 4); err != nil {
		t.Fatalf("exact fit: %v", err)
	}
	if _, err := View[float32](b, 0, 5); !stderrors.Is(err, errors.OutOfBounds(errors.PhaseView, nil, 0, 0)) {
		t.Fatalf("overrun: got %v", err)
	}
	if _, err := View[float32](b, 16, 1); !stderrors.Is(err, errors.OutOfBounds(errors.PhaseView, nil, 0, 0)) {
		t.Fatalf("offset past end: got %v", err)
	}
}

func TestView_Misaligned(t *testing.T) {
	b, err := Alloc(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	_, err = View[float32](b, 2, 1)
	if !stderrors.Is(err, errors.OutOfBounds(errors.PhaseView, nil, 0, 0)) {
		t.Fatalf("misaligned offset: got %v", err)
	}
}

func TestView_Empty(t *testing.T) {
	b, err := Alloc(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	vals, err := View[float32](b, 16, 0)
	if err != nil {
		t.Fatalf("empty view at end: %v", err)
	}
	if len(vals) != 0 {
		t.Fatalf("len = %d, want 0", len(vals))
	}
}

func TestView_AfterRelease(t *testing.T) {
	b, err := Alloc(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	b.Release()

	_, err = View[float32](b, 0, 1)
	if !stderrors.Is(err, errors.Released(errors.PhaseView, "")) {
		t.Fatalf("expected released error, got %v", err)
	}
}
