package classfile

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
)

// ErrStrict is returned by a strict decode that recorded any diagnostic.
var ErrStrict = errors.New("class file has diagnostics")

var log = commonlog.GetLogger("classkit.classfile")

// Option configures a decode session.
type Option func(*options)

type options struct {
	logger commonlog.Logger
	gate   *VersionGate
	strict bool
}

// WithLogger routes the session's log output to logger.
func WithLogger(logger commonlog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithVersionGate makes the session consult gate instead of a fresh one.
// The gate is updated with the file version, so it must not be shared by
// concurrent sessions.
func WithVersionGate(gate *VersionGate) Option {
	return func(o *options) { o.gate = gate }
}

// WithStrict turns every diagnostic into a decode error. The partial model
// is still returned.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// decoder holds the state of one decode session.
type decoder struct {
	c      *Cursor
	cp     *ConstantPool
	gate   *VersionGate
	log    commonlog.Logger
	strict bool
	diags  Diagnostics
}

func newDecoder(data []byte, opts []Option) *decoder {
	o := options{logger: log}
	for _, opt := range opts {
		opt(&o)
	}
	if o.gate == nil {
		o.gate = NewVersionGate()
	}
	return &decoder{
		c:      NewCursor(data),
		cp:     NewConstantPool(),
		gate:   o.gate,
		log:    o.logger,
		strict: o.strict,
	}
}

func (d *decoder) variant() Variant { return d.gate.Variant() }

func (d *decoder) report(offset int, sev Severity, format string, args ...any) {
	diag := Diagnostic{Offset: offset, Severity: sev, Message: fmt.Sprintf(format, args...)}
	d.diags = append(d.diags, diag)
	switch sev {
	case SeverityWarning:
		d.log.Debugf("%s", diag)
	case SeverityRecord:
		d.log.Warningf("%s", diag)
	default:
		d.log.Errorf("%s", diag)
	}
}

func (d *decoder) warnf(offset int, format string, args ...any) {
	d.report(offset, SeverityWarning, format, args...)
}

// checkFlags warns about bits that are not allowed in ctx.
func (d *decoder) checkFlags(offset int, flags AccessFlags, ctx Context) {
	if bad := Illegal(flags, ctx, d.variant()); bad != 0 {
		d.warnf(offset, "%s flags 0x%04x: illegal bits 0x%04x", ctx, uint16(flags), uint16(bad))
	}
}

// strictError returns the error a strict session reports.
func (d *decoder) strictError() error {
	if !d.strict || len(d.diags) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d diagnostics, first: %s", ErrStrict, len(d.diags), d.diags[0])
}
