package direct

import (
	"go.uber.org/zap"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/abi"
	"github.com/wippyai/cubism-runtime/errors"
	"github.com/wippyai/cubism-runtime/memory"
)

// Engine adapts an in-process core to the cubism.Engine contract.
type Engine struct {
	core abi.Engine
	log  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the backend logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New wraps an in-process core.
func New(core abi.Engine, opts ...Option) *Engine {
	e := &Engine{
		core: core,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Version returns the version of the wrapped core.
func (e *Engine) Version() cubism.Version {
	return cubism.Version(e.core.Version())
}

// LatestMocVersion returns the newest moc format version the core decodes.
func (e *Engine) LatestMocVersion() cubism.MocVersion {
	return cubism.MocVersion(e.core.LatestMocVersion())
}

// SetLogSink forwards the sink to the core when it supports log forwarding.
func (e *Engine) SetLogSink(fn func(string)) {
	if ls, ok := e.core.(abi.LogSink); ok {
		ls.SetLogSink(fn)
	}
}

// DecodeMoc copies data into aligned storage and revives it in place. The
// version embedded in the blob is checked before revival: unrecognizable
// bytes fail as invalid, a version newer than the core supports fails as
// unsupported with both versions attached.
func (e *Engine) DecodeMoc(data []byte) (cubism.Moc, error) {
	storage, err := memory.Alloc(len(data), abi.MocAlignment)
	if err != nil {
		return nil, err
	}
	if err := storage.CopyFrom(data); err != nil {
		storage.Release()
		return nil, err
	}

	version := e.core.MocVersion(storage.Bytes())
	if version == 0 {
		storage.Release()
		return nil, errors.InvalidMoc("bytes do not decode as a moc")
	}
	if latest := e.core.LatestMocVersion(); version > latest {
		storage.Release()
		return nil, errors.UnsupportedMocVersion(version, latest)
	}

	core, err := e.core.ReviveMocInPlace(storage.Bytes())
	if err != nil {
		storage.Release()
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidMoc, err, "engine rejected moc")
	}

	e.log.Debug("decoded moc",
		zap.Uint32("version", version),
		zap.Int("size", len(data)))

	return &Moc{
		eng:     e,
		core:    core,
		storage: storage,
		version: cubism.MocVersion(version),
	}, nil
}

// Moc is a revived asset living in backend-owned aligned storage. The
// storage is reference-counted: every model derived from the moc retains it,
// so it outlives all of them. Close drops the moc's own reference.
type Moc struct {
	eng     *Engine
	core    abi.Moc
	storage *memory.AlignedBlock
	version cubism.MocVersion
	closed  bool
}

// Version returns the moc format version the blob declares.
func (m *Moc) Version() cubism.MocVersion {
	return m.version
}

// Close releases the moc's reference to its storage. Models derived earlier
// hold their own references and stay valid. Further calls are no-ops.
func (m *Moc) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.storage.Release()
	return nil
}

// NewModel derives an independent model instance. The static half is copied
// out of engine memory once; the dynamic half aliases the instance's storage
// block.
func (m *Moc) NewModel() (cubism.StaticView, cubism.DynamicView, error) {
	if m.closed {
		return nil, nil, errors.Released(errors.PhaseDerive, "moc")
	}

	size := m.core.ModelSize()
	if size == 0 {
		return nil, nil, errors.InvalidInput(errors.PhaseDerive, "engine reported zero model size")
	}

	storage, err := memory.Alloc(int(size), abi.ModelAlignment)
	if err != nil {
		return nil, nil, err
	}
	core, err := m.core.InitializeModelInPlace(storage.Bytes())
	if err != nil {
		storage.Release()
		return nil, nil, errors.Wrap(errors.PhaseDerive, errors.KindInvalidInput, err, "model initialization failed")
	}

	static := buildStatic(core)
	dynamic := &Dynamic{
		log:     m.eng.log,
		core:    core,
		storage: storage,
		mocRef:  m.storage.Retain(),
	}
	if err := dynamic.deriveViews(); err != nil {
		dynamic.mocRef.Release()
		storage.Release()
		return nil, nil, err
	}

	m.eng.log.Debug("derived model",
		zap.Uint32("storage_size", size),
		zap.Int("parameters", len(static.parameters)),
		zap.Int("parts", len(static.parts)),
		zap.Int("drawables", len(static.drawables)))

	return static, dynamic, nil
}
