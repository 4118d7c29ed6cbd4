package poll

import "sync"

// Visibility reports whether anyone is looking at the polled data.
type Visibility interface {
	Visible() bool
	// Watch calls fn on every change and returns a function that stops watching.
	Watch(fn func(visible bool)) (cancel func())
}

type alwaysVisible struct{}

func (alwaysVisible) Visible() bool                    { return true }
func (alwaysVisible) Watch(func(bool)) (cancel func()) { return func() {} }

// AlwaysVisible never hides.
var AlwaysVisible Visibility = alwaysVisible{}

// Page is a settable visibility signal.
type Page struct {
	mu       sync.Mutex
	visible  bool
	watchers map[uint64]func(bool)
	nextID   uint64
}

func NewPage(visible bool) *Page {
	return &Page{
		visible:  visible,
		watchers: make(map[uint64]func(bool)),
	}
}

func (p *Page) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// SetVisible updates the signal. Watchers are only told about real changes.
func (p *Page) SetVisible(v bool) {
	p.mu.Lock()
	if p.visible == v {
		p.mu.Unlock()
		return
	}
	p.visible = v
	fns := make([]func(bool), 0, len(p.watchers))
	for _, fn := range p.watchers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (p *Page) Watch(fn func(bool)) (cancel func()) {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.watchers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.watchers, id)
		p.mu.Unlock()
	}
}
