package bindgen

import (
	"go/format"

	"go.uber.org/zap"

	"github.com/wippyai/bindgen/descriptor"
	"github.com/wippyai/bindgen/errors"
)

// Output holds the generated artifacts. Callbacks is empty when the
// descriptor declares no callback interfaces.
type Output struct {
	HeaderName    string
	GlueName      string
	CallbacksName string
	Header        []byte
	Glue          []byte
	Callbacks     []byte
}

// Files returns the artifacts keyed by file name.
func (o *Output) Files() map[string][]byte {
	files := map[string][]byte{
		o.HeaderName: o.Header,
		o.GlueName:   o.Glue,
	}
	if len(o.Callbacks) > 0 {
		files[o.CallbacksName] = o.Callbacks
	}
	return files
}

// Generate validates d and emits the C header and cgo glue for it.
// Descriptor problems, including generated names that would collide, are
// reported together; nothing is emitted unless all of them are fixed.
func Generate(d *descriptor.Descriptor, opts Options) (*Output, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	if d == nil {
		return nil, errors.InvalidDescriptor(nil, "nil descriptor")
	}
	if err := d.Validate(); err != nil {
		log.Debug("descriptor rejected", zap.Error(err))
		return nil, err
	}

	p := newPlan(d, opts)
	if err := p.check(); err != nil {
		log.Debug("generated names rejected", zap.Error(err))
		return nil, err
	}

	log.Debug("generating bindings",
		zap.String("package", p.pkg),
		zap.String("prefix", p.prefix),
		zap.Int("items", len(d.Items)),
		zap.Int("functions", len(p.funcs)))

	out := &Output{
		HeaderName:    p.header,
		GlueName:      p.prefix + "_glue.go",
		CallbacksName: p.prefix + "_callbacks.go",
		Header:        p.emitHeader(),
	}

	glue, err := format.Source(p.emitGlue())
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindFormat, err, "glue is not valid Go")
	}
	out.Glue = glue

	if src := p.emitCallbacks(); src != nil {
		cb, err := format.Source(src)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseGenerate, errors.KindFormat, err, "callback glue is not valid Go")
		}
		out.Callbacks = cb
	}

	log.Info("generated bindings",
		zap.String("header", out.HeaderName),
		zap.Int("header_bytes", len(out.Header)),
		zap.Int("glue_bytes", len(out.Glue)+len(out.Callbacks)))
	return out, nil
}
