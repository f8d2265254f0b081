package hostobj_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/backend/direct"
	"github.com/wippyai/cubism-runtime/backend/hostobj"
	"github.com/wippyai/cubism-runtime/errors"
	"github.com/wippyai/cubism-runtime/internal/enginetest"
)

func newTestEngine(t *testing.T) *hostobj.Engine {
	t.Helper()
	eng, err := hostobj.New(enginetest.NewNamespace())
	require.NoError(t, err)
	return eng
}

func newDemoModel(t *testing.T) (cubism.StaticView, cubism.DynamicView) {
	t.Helper()
	eng := newTestEngine(t)
	moc, err := eng.DecodeMoc(enginetest.EncodeMoc(enginetest.DemoDesc(), 4))
	require.NoError(t, err)
	static, dynamic, err := moc.NewModel()
	require.NoError(t, err)
	t.Cleanup(func() { dynamic.Close() })
	return static, dynamic
}

func TestBindRejectsIncompleteNamespace(t *testing.T) {
	ns := enginetest.NewNamespace()
	delete(ns["Moc"].(map[string]any), "fromBytes")

	_, err := hostobj.New(ns)
	require.Error(t, err)

	var serr *errors.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, errors.KindHostContract, serr.Kind)
	require.Equal(t, []string{"Moc", "fromBytes"}, serr.Path)
}

func TestBindRejectsWrongShape(t *testing.T) {
	ns := enginetest.NewNamespace()
	ns["Version"].(map[string]any)["csmGetVersion"] = "not a function"

	_, err := hostobj.New(ns)

	var serr *errors.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, errors.KindHostContract, serr.Kind)
}

func TestBindRejectsNilMember(t *testing.T) {
	ns := enginetest.NewNamespace()
	ns["Version"].(map[string]any)["csmGetVersion"] = nil

	_, err := hostobj.New(ns)
	require.Error(t, err)

	var serr *errors.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, errors.KindHostContract, serr.Kind)
	require.Equal(t, []string{"Version", "csmGetVersion"}, serr.Path)
	require.Contains(t, serr.Detail, "nil")
}

func TestBindRejectsMalformedLogging(t *testing.T) {
	ns := enginetest.NewNamespace()
	ns["Logging"].(map[string]any)["csmSetLogFunction"] = "not a function"

	_, err := hostobj.New(ns)

	var serr *errors.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, errors.KindHostContract, serr.Kind)
	require.Equal(t, []string{"Logging", "csmSetLogFunction"}, serr.Path)
}

func TestBindWithoutLogging(t *testing.T) {
	ns := enginetest.NewNamespace()
	delete(ns, "Logging")

	_, err := hostobj.New(ns)
	require.NoError(t, err)
}

func TestEngineVersion(t *testing.T) {
	eng := newTestEngine(t)
	require.EqualValues(t, 4, eng.Version().Major())
	require.Equal(t, cubism.MocVersion42, eng.LatestMocVersion())
}

func TestDecodeInvalidBytes(t *testing.T) {
	eng := newTestEngine(t)
	_, err := eng.DecodeMoc([]byte("definitely not a moc"))
	require.ErrorIs(t, err, errors.InvalidMoc(""))
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	eng := newTestEngine(t)
	_, err := eng.DecodeMoc(enginetest.EncodeMoc(enginetest.DemoDesc(), 7))

	var serr *errors.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, errors.KindUnsupportedVersion, serr.Kind)
	require.EqualValues(t, 7, serr.Given)
	require.EqualValues(t, 4, serr.Latest)
}

func TestStaticView(t *testing.T) {
	static, _ := newDemoModel(t)
	desc := enginetest.DemoDesc()

	require.Equal(t, desc.CanvasSize, static.CanvasInfo().SizeInPixels)
	require.Equal(t, desc.PixelsPerUnit, static.CanvasInfo().PixelsPerUnit)

	params := static.Parameters()
	require.Len(t, params, len(desc.Parameters))
	require.Equal(t, "ParamAngleX", params[0].ID)
	require.Equal(t, cubism.ParameterTypeBlendShape, params[1].Type)
	require.Equal(t, []float32{-30, 0, 30}, params[0].Keys)

	parts := static.Parts()
	require.False(t, parts[0].HasParent)
	require.True(t, parts[1].HasParent)
	require.Equal(t, 0, parts[1].ParentPartIndex)

	drawables := static.Drawables()
	require.Len(t, drawables, 2)
	require.True(t, drawables[0].ConstantFlags.Has(cubism.IsDoubleSided))
	require.Equal(t, []int{0}, drawables[1].Masks)
	require.Len(t, drawables[0].VertexUVs, 4)
	require.Len(t, drawables[0].TriangleIndices, 6)
}

func TestTwoPhaseUpdate(t *testing.T) {
	static, dynamic := newDemoModel(t)

	require.Equal(t, static.Parameters()[0].DefaultValue, dynamic.ParameterValues()[0])

	before := append([]cubism.Vector2(nil), dynamic.DrawableVertexPositions()[0]...)
	dynamic.ParameterValues()[0] = 1
	dynamic.Update()

	after := dynamic.DrawableVertexPositions()[0]
	require.NotEqual(t, before[1], after[1], "vertex positions did not change")
	require.True(t, dynamic.DrawableDynamicFlags()[0].Has(cubism.VertexPositionsDidChange))
}

func TestOpacityFollowsParentPart(t *testing.T) {
	_, dynamic := newDemoModel(t)

	dynamic.PartOpacities()[1] = 0.25
	dynamic.Update()

	require.EqualValues(t, 0.25, dynamic.DrawableOpacities()[1])
	require.True(t, dynamic.DrawableDynamicFlags()[1].Has(cubism.OpacityDidChange))
}

func TestResetDrawableDynamicFlags(t *testing.T) {
	_, dynamic := newDemoModel(t)

	dynamic.Update()
	dynamic.Update()
	dynamic.ResetDrawableDynamicFlags()

	want := cubism.IsVisible | cubism.AllDidChange
	for _, f := range dynamic.DrawableDynamicFlags() {
		require.Equal(t, want, f)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	eng := newTestEngine(t)
	moc, err := eng.DecodeMoc(enginetest.EncodeMoc(enginetest.DemoDesc(), 4))
	require.NoError(t, err)
	_, dynamic, err := moc.NewModel()
	require.NoError(t, err)

	require.NoError(t, dynamic.Close())
	require.NoError(t, dynamic.Close())
}

func TestMocClose(t *testing.T) {
	eng := newTestEngine(t)
	moc, err := eng.DecodeMoc(enginetest.EncodeMoc(enginetest.DemoDesc(), 4))
	require.NoError(t, err)
	_, dynamic, err := moc.NewModel()
	require.NoError(t, err)
	defer dynamic.Close()

	require.NoError(t, moc.Close())
	require.NoError(t, moc.Close())

	// The model took its own host handle at derivation; releasing the asset
	// does not touch it.
	dynamic.Update()
	require.Len(t, dynamic.DrawableVertexPositions(), 2)

	_, _, err = moc.NewModel()
	require.ErrorIs(t, err, errors.Released(errors.PhaseDerive, ""))
}

// The indirect backend must be observationally identical to the zero-copy
// one for the same core and inputs.
func TestMatchesDirectBackend(t *testing.T) {
	data := enginetest.EncodeMoc(enginetest.DemoDesc(), 4)

	directMoc, err := direct.New(enginetest.NewEngine()).DecodeMoc(data)
	require.NoError(t, err)
	_, dd, err := directMoc.NewModel()
	require.NoError(t, err)
	defer dd.Close()

	hostEng := newTestEngine(t)
	hostMoc, err := hostEng.DecodeMoc(data)
	require.NoError(t, err)
	_, hd, err := hostMoc.NewModel()
	require.NoError(t, err)
	defer hd.Close()

	for _, d := range []cubism.DynamicView{dd, hd} {
		d.ParameterValues()[0] = 12.5
		d.PartOpacities()[1] = 0.5
		d.Update()
	}

	require.Equal(t, dd.ParameterValues(), hd.ParameterValues())
	require.Equal(t, dd.DrawableDynamicFlags(), hd.DrawableDynamicFlags())
	require.Equal(t, dd.DrawableDrawOrders(), hd.DrawableDrawOrders())
	require.Equal(t, dd.DrawableRenderOrders(), hd.DrawableRenderOrders())
	require.Equal(t, dd.DrawableOpacities(), hd.DrawableOpacities())
	require.Equal(t, dd.DrawableMultiplyColors(), hd.DrawableMultiplyColors())
	require.Equal(t, dd.DrawableScreenColors(), hd.DrawableScreenColors())
	require.Equal(t, dd.DrawableVertexPositions(), hd.DrawableVertexPositions())
}
