package camera

import "github.com/sorenh/camerad/internal/driver"

// callbackKind tags the binding slot an event is delivered through. One
// binding is active per kind at a time; binding a kind again replaces the
// previous registration for subsequent events only.
type callbackKind int

const (
	kindError callbackKind = iota
	kindShutter
	kindRaw
	kindPostview
	kindJPEG
	kindPreviewFrame
	kindAutoFocus
	kindAutoFocusMove
	kindZoom
	kindFaceDetection
)

// event is the tagged payload delivered through a binding. Only the fields
// relevant to the kind are populated.
type event struct {
	kind  callbackKind
	data  []byte
	flag  bool
	code  int
	value int
	faces []driver.Face
}

// binding associates a callback kind with its delivery closure and the
// Handler the closure is posted on.
type binding struct {
	handler Handler
	deliver func(ev event)
}

// dispatcher is the single delivery mechanism for all callback kinds. It is
// owned by the session and must only be touched from the command queue
// goroutine.
type dispatcher struct {
	bindings map[callbackKind]*binding
}

func newDispatcher() *dispatcher {
	return &dispatcher{bindings: make(map[callbackKind]*binding)}
}

// bind installs (or replaces) the registration for kind. Dispatches already
// posted to the previous handler are not retracted.
func (d *dispatcher) bind(kind callbackKind, h Handler, deliver func(event)) {
	d.bindings[kind] = &binding{handler: h, deliver: deliver}
}

func (d *dispatcher) unbind(kind callbackKind) {
	delete(d.bindings, kind)
}

// dispatch posts ev to the handler bound for its kind and reports whether a
// binding was present. Events of the same kind are delivered in dispatch
// order; the callback never runs on the command queue goroutine.
func (d *dispatcher) dispatch(ev event) bool {
	b := d.bindings[ev.kind]
	if b == nil {
		return false
	}
	b.handler.Post(func() { b.deliver(ev) })
	return true
}
