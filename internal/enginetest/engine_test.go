package enginetest

import (
	"testing"

	"github.com/wippyai/cubism-runtime/abi"
	"github.com/wippyai/cubism-runtime/memory"
)

func reviveDemo(t *testing.T) abi.Moc {
	t.Helper()
	data := EncodeMoc(DemoDesc(), 4)
	storage, err := memory.Alloc(len(data), abi.MocAlignment)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	storage.CopyFrom(data)

	moc, err := NewEngine().ReviveMocInPlace(storage.Bytes())
	if err != nil {
		t.Fatalf("ReviveMocInPlace failed: %v", err)
	}
	return moc
}

func initDemo(t *testing.T) abi.Model {
	t.Helper()
	moc := reviveDemo(t)
	storage, err := memory.Alloc(int(moc.ModelSize()), abi.ModelAlignment)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	model, err := moc.InitializeModelInPlace(storage.Bytes())
	if err != nil {
		t.Fatalf("InitializeModelInPlace failed: %v", err)
	}
	return model
}

func TestMocRoundTrip(t *testing.T) {
	desc := DemoDesc()
	decoded, err := decodeMoc(EncodeMoc(desc, 4))
	if err != nil {
		t.Fatalf("decodeMoc failed: %v", err)
	}
	if len(decoded.Parameters) != len(desc.Parameters) ||
		len(decoded.Parts) != len(desc.Parts) ||
		len(decoded.Drawables) != len(desc.Drawables) {
		t.Errorf("decoded %d/%d/%d entries, want %d/%d/%d",
			len(decoded.Parameters), len(decoded.Parts), len(decoded.Drawables),
			len(desc.Parameters), len(desc.Parts), len(desc.Drawables))
	}
	if decoded.Drawables[1].ID != desc.Drawables[1].ID {
		t.Errorf("drawable id = %q, want %q", decoded.Drawables[1].ID, desc.Drawables[1].ID)
	}
}

func TestMocVersionParsing(t *testing.T) {
	eng := NewEngine()
	if v := eng.MocVersion(EncodeMoc(DemoDesc(), 3)); v != 3 {
		t.Errorf("MocVersion = %d, want 3", v)
	}
	if v := eng.MocVersion([]byte("garbage")); v != 0 {
		t.Errorf("MocVersion(garbage) = %d, want 0", v)
	}
}

func TestReviveRejectsTruncated(t *testing.T) {
	data := EncodeMoc(DemoDesc(), 4)
	data = data[:len(data)-3]
	storage, _ := memory.Alloc(len(data), abi.MocAlignment)
	storage.CopyFrom(data)

	if _, err := NewEngine().ReviveMocInPlace(storage.Bytes()); err == nil {
		t.Error("truncated moc revived without error")
	}
}

// Every span the model reports has to land inside the storage block it was
// initialized into.
func TestSpansStayInBounds(t *testing.T) {
	moc := reviveDemo(t)
	size := moc.ModelSize()
	storage, _ := memory.Alloc(int(size), abi.ModelAlignment)
	model, err := moc.InitializeModelInPlace(storage.Bytes())
	if err != nil {
		t.Fatalf("InitializeModelInPlace failed: %v", err)
	}

	check := func(name string, s abi.Span, elemBytes uint32) {
		if end := uint64(s.Offset) + uint64(s.Count)*uint64(elemBytes); end > uint64(size) {
			t.Errorf("%s span [%d, %d) exceeds storage size %d", name, s.Offset, end, size)
		}
	}
	check("parameterValues", model.ParameterValuesSpan(), 4)
	check("partOpacities", model.PartOpacitiesSpan(), 4)
	check("dynamicFlags", model.DrawableDynamicFlagsSpan(), 1)
	check("drawOrders", model.DrawableDrawOrdersSpan(), 4)
	check("renderOrders", model.DrawableRenderOrdersSpan(), 4)
	check("opacities", model.DrawableOpacitiesSpan(), 4)
	check("multiplyColors", model.DrawableMultiplyColorsSpan(), 4)
	check("screenColors", model.DrawableScreenColorsSpan(), 4)
	for i, s := range model.DrawableVertexPositionSpans() {
		check("vertexPositions", s, 4)
		if int(s.Count) != 2*len(DemoDesc().Drawables[i].VertexUVs) {
			t.Errorf("vertex span %d counts %d floats", i, s.Count)
		}
	}
}

// The core must relocate the vertex-position buffers on update, or wrappers
// would never exercise view re-derivation.
func TestUpdateRelocatesVertexSpans(t *testing.T) {
	model := initDemo(t)

	before := model.DrawableVertexPositionSpans()
	model.Update()
	after := model.DrawableVertexPositionSpans()

	for i := range before {
		if before[i].Offset == after[i].Offset {
			t.Errorf("vertex span %d stayed at offset %d across update", i, before[i].Offset)
		}
	}
}

func TestInitializeRejectsWrongSize(t *testing.T) {
	moc := reviveDemo(t)
	storage, _ := memory.Alloc(int(moc.ModelSize())+16, abi.ModelAlignment)
	if _, err := moc.InitializeModelInPlace(storage.Bytes()); err == nil {
		t.Error("oversized storage accepted")
	}
}
