package runtime

import (
	"go.uber.org/zap"

	cubism "github.com/wippyai/cubism-runtime"
	"github.com/wippyai/cubism-runtime/abi"
	"github.com/wippyai/cubism-runtime/errors"
)

// Core wraps a backend engine behind a uniform, thread-safe surface.
type Core struct {
	backend cubism.Engine
	log     *zap.Logger
}

// Option configures a Core.
type Option func(*Core)

// WithLogger sets the logger for the core and, when the backend supports log
// forwarding, routes the engine's internal log lines through it. The default
// discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Core) {
		c.log = log
	}
}

// New wraps a backend engine.
func New(backend cubism.Engine, opts ...Option) *Core {
	c := &Core{
		backend: backend,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if sink, ok := backend.(abi.LogSink); ok {
		engineLog := c.log.Named("engine")
		sink.SetLogSink(func(message string) {
			engineLog.Debug(message)
		})
	}
	return c
}

// Version returns the version of the wrapped engine core.
func (c *Core) Version() cubism.Version {
	return c.backend.Version()
}

// LatestMocVersion returns the newest moc format version the engine
// supports.
func (c *Core) LatestMocVersion() cubism.MocVersion {
	return c.backend.LatestMocVersion()
}

// MocFromBytes decodes a compiled asset. The decode is transactional: a
// structurally invalid blob or one declaring a version newer than
// LatestMocVersion fails without leaking backend state.
func (c *Core) MocFromBytes(data []byte) (*Moc, error) {
	if len(data) == 0 {
		return nil, errors.InvalidMoc("empty moc data")
	}
	moc, err := c.backend.DecodeMoc(data)
	if err != nil {
		return nil, err
	}
	c.log.Info("moc decoded",
		zap.Stringer("version", moc.Version()),
		zap.Int("size", len(data)))
	return &Moc{core: c, moc: moc}, nil
}
