package runtime

import (
	stderrors "errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/backend/direct"
	"github.com/wippyai/cubism-runtime/errors"
	"github.com/wippyai/cubism-runtime/internal/enginetest"
)

func newTestCore(t *testing.T, opts ...Option) *Core {
	t.Helper()
	return New(direct.New(enginetest.NewEngine()), opts...)
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	moc, err := newTestCore(t).MocFromBytes(enginetest.EncodeMoc(enginetest.DemoDesc(), 4))
	if err != nil {
		t.Fatalf("MocFromBytes failed: %v", err)
	}
	model, err := moc.NewModel()
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	t.Cleanup(func() { model.Close() })
	return model
}

func TestCoreVersion(t *testing.T) {
	core := newTestCore(t)
	if got := core.Version().Major(); got != 4 {
		t.Errorf("Version().Major() = %d, want 4", got)
	}
	if got := core.LatestMocVersion(); got != cubism.MocVersion42 {
		t.Errorf("LatestMocVersion() = %v, want %v", got, cubism.MocVersion42)
	}
}

func TestMocFromBytesEmpty(t *testing.T) {
	_, err := newTestCore(t).MocFromBytes(nil)
	if !stderrors.Is(err, errors.InvalidMoc("")) {
		t.Errorf("MocFromBytes(nil) = %v, want invalid moc", err)
	}
}

func TestMocFromBytesUnsupportedVersion(t *testing.T) {
	_, err := newTestCore(t).MocFromBytes(enginetest.EncodeMoc(enginetest.DemoDesc(), 40))

	var serr *errors.Error
	if !stderrors.As(err, &serr) {
		t.Fatalf("MocFromBytes = %v, want structured error", err)
	}
	if serr.Kind != errors.KindUnsupportedVersion || serr.Given != 40 || serr.Latest != 4 {
		t.Errorf("error = %+v, want unsupported 40/4", serr)
	}
}

func TestReadWriteDynamic(t *testing.T) {
	model := newTestModel(t)

	err := model.WriteDynamic(func(d *DynamicState) {
		d.ParameterValues()[0] = 3
		d.Update()
	})
	if err != nil {
		t.Fatalf("WriteDynamic failed: %v", err)
	}

	err = model.ReadDynamic(func(s *DynamicSnapshot) {
		if got := s.ParameterValues()[0]; got != 3 {
			t.Errorf("parameter 0 = %v, want 3", got)
		}
		if !s.DrawableDynamicFlags()[0].Has(cubism.VertexPositionsDidChange) {
			t.Error("vertex change not flagged after update")
		}
	})
	if err != nil {
		t.Fatalf("ReadDynamic failed: %v", err)
	}
}

// Readers must observe a consistent evaluation while a writer churns the
// model. Every drawable's vertex slice has to match its static vertex count
// at all times; run with -race to verify the lock discipline.
func TestConcurrentReadersAndWriter(t *testing.T) {
	model := newTestModel(t)
	vertexCounts := make([]int, len(model.Static().Drawables()))
	for i, d := range model.Static().Drawables() {
		vertexCounts[i] = len(d.VertexUVs)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				err := model.ReadDynamic(func(s *DynamicSnapshot) {
					positions := s.DrawableVertexPositions()
					for i, p := range positions {
						if len(p) != vertexCounts[i] {
							t.Errorf("drawable %d has %d positions, want %d", i, len(p), vertexCounts[i])
						}
					}
				})
				if err != nil {
					t.Errorf("ReadDynamic failed: %v", err)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		err := model.WriteDynamic(func(d *DynamicState) {
			d.ParameterValues()[0] = float32(i)
			d.Update()
		})
		if err != nil {
			t.Fatalf("WriteDynamic failed: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}

func TestInstancesAreIndependent(t *testing.T) {
	moc, err := newTestCore(t).MocFromBytes(enginetest.EncodeMoc(enginetest.DemoDesc(), 4))
	if err != nil {
		t.Fatalf("MocFromBytes failed: %v", err)
	}
	a, err := moc.NewModel()
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	defer a.Close()
	b, err := moc.NewModel()
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	defer b.Close()

	a.WriteDynamic(func(d *DynamicState) {
		d.ParameterValues()[0] = 9
		d.Update()
	})
	b.ReadDynamic(func(s *DynamicSnapshot) {
		if got := s.ParameterValues()[0]; got == 9 {
			t.Error("parameter write leaked into sibling instance")
		}
	})
}

func TestMocClose(t *testing.T) {
	moc, err := newTestCore(t).MocFromBytes(enginetest.EncodeMoc(enginetest.DemoDesc(), 4))
	if err != nil {
		t.Fatalf("MocFromBytes failed: %v", err)
	}
	model, err := moc.NewModel()
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	defer model.Close()

	if err := moc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := moc.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}

	// Models derived before the close stay valid: they retain the asset's
	// backing storage themselves.
	err = model.WriteDynamic(func(d *DynamicState) {
		d.Update()
	})
	if err != nil {
		t.Errorf("WriteDynamic after moc close = %v, want nil", err)
	}

	if _, err := moc.NewModel(); !stderrors.Is(err, errors.Released(errors.PhaseDerive, "")) {
		t.Errorf("NewModel after Close = %v, want released", err)
	}
}

func TestUseAfterClose(t *testing.T) {
	model := newTestModel(t)
	if err := model.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := model.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}

	err := model.ReadDynamic(func(*DynamicSnapshot) {})
	if !stderrors.Is(err, errors.Released(errors.PhaseView, "")) {
		t.Errorf("ReadDynamic after close = %v, want released", err)
	}
	err = model.WriteDynamic(func(*DynamicState) {})
	if !stderrors.Is(err, errors.Released(errors.PhaseUpdate, "")) {
		t.Errorf("WriteDynamic after close = %v, want released", err)
	}
}

func TestEngineLogForwarding(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	core := New(direct.New(enginetest.NewEngine()), WithLogger(zap.New(obs)))

	if _, err := core.MocFromBytes(enginetest.EncodeMoc(enginetest.DemoDesc(), 4)); err != nil {
		t.Fatalf("MocFromBytes failed: %v", err)
	}

	found := false
	for _, entry := range logs.All() {
		if entry.LoggerName == "engine" {
			found = true
		}
	}
	if !found {
		t.Error("engine log lines were not forwarded to the injected logger")
	}
}
