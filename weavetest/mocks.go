package weavetest

import weave "github.com/iov-one/grantd"

// Calls counts how many times a mock was checked and delivered. Failed
// calls are counted too.
type Calls struct {
	checks   int
	delivers int
}

func (c *Calls) CheckCallCount() int   { return c.checks }
func (c *Calls) DeliverCallCount() int { return c.delivers }
func (c *Calls) CallCount() int        { return c.checks + c.delivers }

// Handler is a weave.Handler returning preset results. CheckErr and
// DeliverErr take precedence over the results.
type Handler struct {
	Calls

	CheckResult   weave.CheckResult
	CheckErr      error
	DeliverResult weave.DeliverResult
	DeliverErr    error
}

var _ weave.Handler = (*Handler)(nil)

func (h *Handler) Check(weave.Context, weave.KVStore, weave.Tx) (*weave.CheckResult, error) {
	h.checks++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(weave.Context, weave.KVStore, weave.Tx) (*weave.DeliverResult, error) {
	h.delivers++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

// Decorator is a weave.Decorator that either fails with the preset error
// or passes the call on.
type Decorator struct {
	Calls

	CheckErr   error
	DeliverErr error
}

var _ weave.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	d.checks++
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	d.delivers++
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

// Decorate returns a handler calling h through d.
func Decorate(h weave.Handler, d weave.Decorator) weave.Handler {
	return decorated{h: h, d: d}
}

type decorated struct {
	h weave.Handler
	d weave.Decorator
}

func (x decorated) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	return x.d.Check(ctx, db, tx, x.h)
}

func (x decorated) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	return x.d.Deliver(ctx, db, tx, x.h)
}

// WriteHandler stores Value under Key and then fails with Err, if set. It
// is used to see whether writes of a failed transaction survive.
type WriteHandler struct {
	Key   []byte
	Value []byte
	Err   error
}

var _ weave.Handler = (*WriteHandler)(nil)

func (h *WriteHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if err := h.write(db); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, nil
}

func (h *WriteHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	if err := h.write(db); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h *WriteHandler) write(db weave.KVStore) error {
	if err := db.Set(h.Key, h.Value); err != nil {
		return err
	}
	return h.Err
}

// PanicHandler panics with Msg on every call.
type PanicHandler struct {
	Msg string
}

var _ weave.Handler = PanicHandler{}

func (h PanicHandler) Check(weave.Context, weave.KVStore, weave.Tx) (*weave.CheckResult, error) {
	panic(h.Msg)
}

func (h PanicHandler) Deliver(weave.Context, weave.KVStore, weave.Tx) (*weave.DeliverResult, error) {
	panic(h.Msg)
}
