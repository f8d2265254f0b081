package hostobj

import (
	"go.uber.org/zap"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/errors"
)

// Engine adapts a host namespace to the cubism.Engine contract.
type Engine struct {
	ns  any
	b   *binding
	log *zap.Logger

	setLog func(func(string))
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the backend logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New binds the engine entry points of ns. Binding is the one place a
// missing or wrong-shaped member is reported as an error; it means the
// wrapper and the host implement different contract versions.
func New(ns any, opts ...Option) (*Engine, error) {
	b, err := bind(ns)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		ns:  ns,
		b:   b,
		log: zap.NewNop(),
	}
	// Log forwarding is optional on the host side, but a host that exposes a
	// Logging group must expose it well-shaped; a wrong type here is a
	// contract violation, not absence.
	if _, lerr := member(ns, "Logging"); lerr == nil {
		setLog, err := resolve[func(func(string))](ns, "Logging", "csmSetLogFunction")
		if err != nil {
			return nil, err
		}
		e.setLog = setLog
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Version returns the version of the host core.
func (e *Engine) Version() cubism.Version {
	return cubism.Version(e.b.getVersion())
}

// LatestMocVersion returns the newest moc format version the host core
// decodes.
func (e *Engine) LatestMocVersion() cubism.MocVersion {
	return cubism.MocVersion(e.b.getLatestMocVersion())
}

// SetLogSink forwards the sink to the host when it supports log forwarding.
func (e *Engine) SetLogSink(fn func(string)) {
	if e.setLog != nil {
		e.setLog(fn)
	}
}

// DecodeMoc hands data to the host core. The embedded version is checked
// before instantiation so an unsupported blob fails with both versions
// attached rather than with whatever the host reports.
func (e *Engine) DecodeMoc(data []byte) (cubism.Moc, error) {
	version := e.b.getMocVersion(data)
	if version == 0 {
		return nil, errors.InvalidMoc("bytes do not decode as a moc")
	}
	if latest := e.b.getLatestMocVersion(); version > latest {
		return nil, errors.UnsupportedMocVersion(version, latest)
	}

	handle := e.b.mocFromBytes(data)
	if handle == nil {
		return nil, errors.InvalidMoc("host rejected moc")
	}

	e.log.Debug("decoded moc",
		zap.Uint32("version", version),
		zap.Int("size", len(data)))

	return &Moc{
		eng:     e,
		handle:  handle,
		version: cubism.MocVersion(version),
	}, nil
}

// Moc is a host-side asset handle.
type Moc struct {
	eng     *Engine
	handle  any
	version cubism.MocVersion
	closed  bool
}

// Version returns the moc format version the blob declares.
func (m *Moc) Version() cubism.MocVersion {
	return m.version
}

// Close frees the host-side asset when the host exposes a release member.
// Models derived earlier keep their own host handles and stay valid; further
// calls are no-ops.
func (m *Moc) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if release, err := resolve[func()](m.handle, "release"); err == nil {
		release()
	}
	return nil
}

// NewModel instantiates the moc host-side and binds the instance's members.
// The static half is copied out once; the dynamic half works through scratch
// buffers refreshed by Update.
func (m *Moc) NewModel() (cubism.StaticView, cubism.DynamicView, error) {
	if m.closed {
		return nil, nil, errors.Released(errors.PhaseDerive, "moc")
	}

	handle := m.eng.b.modelFromMoc(m.handle)
	if handle == nil {
		return nil, nil, errors.InvalidInput(errors.PhaseDerive, "host failed to instantiate model")
	}

	mb, err := bindModel(handle)
	if err != nil {
		return nil, nil, err
	}
	static, err := buildStatic(handle)
	if err != nil {
		return nil, nil, err
	}
	dynamic, err := newDynamic(mb, static)
	if err != nil {
		return nil, nil, err
	}

	m.eng.log.Debug("derived model",
		zap.Int("parameters", len(static.parameters)),
		zap.Int("parts", len(static.parts)),
		zap.Int("drawables", len(static.drawables)))

	return static, dynamic, nil
}
