package webpart

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/pipeline"
)

// Page is a set of named regions.
type Page struct {
	mu      sync.Mutex
	regions map[string]*Region
}

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{regions: make(map[string]*Region)}
}

// Region returns the region called name, creating it on first use.
func (p *Page) Region(name string) (*Region, error) {
	if err := errors.ValidateRegionName(name); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.regions[name]; ok {
		return r, nil
	}
	r := &Region{name: name}
	p.regions[name] = r
	return r, nil
}

// Names returns the region names in sorted order.
func (p *Page) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.regions))
	for n := range p.regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Region is a page slot holding the markup of at most one live render.
type Region struct {
	name string

	mu      sync.Mutex
	owner   *Handle
	content []byte
}

// Name returns the region name.
func (r *Region) Name() string { return r.name }

// Busy reports whether a live handle owns the region.
func (r *Region) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner != nil
}

// Content returns a copy of the current markup.
func (r *Region) Content() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.content...)
}

func (r *Region) acquire(h *Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner != nil {
		return errors.New(errors.ErrCodeRegionBusy, "region %q is owned by %s", r.name, r.owner.id)
	}
	r.owner = h
	r.content = nil
	return nil
}

func (r *Region) fill(h *Handle, content []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner == h {
		r.content = content
	}
}

func (r *Region) release(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner == h {
		r.owner = nil
		r.content = nil
	}
}

// Handle owns a region for the lifetime of one render.
type Handle struct {
	id       string
	region   *Region
	result   *pipeline.Result
	err      error
	disposed atomic.Bool
}

// ID returns the surface id used for every element the render created.
func (h *Handle) ID() string { return h.id }

// Region returns the owned region.
func (h *Handle) Region() *Region { return h.region }

// Err returns the render failure, if any. A failed render still owns its
// region, which holds the failure panel.
func (h *Handle) Err() error { return h.err }

// Result returns the pipeline result; nil when the options were invalid.
func (h *Handle) Result() *pipeline.Result { return h.result }

// Disposed reports whether Dispose has been called.
func (h *Handle) Disposed() bool { return h.disposed.Load() }

// Dispose clears the region and releases it for the next render.
// Disposing twice returns DISPOSED.
func (h *Handle) Dispose() error {
	if !h.disposed.CompareAndSwap(false, true) {
		return errors.New(errors.ErrCodeDisposed, "handle %s already disposed", h.id)
	}
	h.region.release(h)
	return nil
}
