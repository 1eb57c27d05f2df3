// Package templates maps template ids to pure layout functions. A template
// turns a banner request and brand profile into an ordered layer list; it
// holds no state of its own, so one registry serves all tenants.
package templates

import (
	"fmt"
	"sort"
	"sync"

	"github.com/promoforge-inc/promoforge-engine/pkg/apperrors"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// TemplateFunc produces the ordered layer list for one request.
type TemplateFunc func(req *models.BannerRequest, profile *models.BrandProfile) []models.Layer

// Registry is a lookup table of templates keyed by string id. Templates
// may be registered lazily; resolution instantiates on first use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]TemplateFunc
	lazy      map[string]func() TemplateFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]TemplateFunc),
		lazy:      make(map[string]func() TemplateFunc),
	}
}

// NewBuiltinRegistry returns a registry with all built-in templates.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// Register adds a template under id, replacing any previous registration.
func (r *Registry) Register(id string, fn TemplateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[id] = fn
	delete(r.lazy, id)
}

// RegisterLazy adds a template whose function is built on first resolve.
func (r *Registry) RegisterLazy(id string, build func() TemplateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lazy[id] = build
	delete(r.templates, id)
}

// Resolve returns the template for id or apperrors.ErrTemplateNotFound.
func (r *Registry) Resolve(id string) (TemplateFunc, error) {
	r.mu.RLock()
	fn, ok := r.templates[id]
	r.mu.RUnlock()
	if ok {
		return fn, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if fn, ok := r.templates[id]; ok {
		return fn, nil
	}
	if build, ok := r.lazy[id]; ok {
		fn := build()
		r.templates[id] = fn
		delete(r.lazy, id)
		return fn, nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrTemplateNotFound, id)
}

// IDs returns all registered template ids, sorted for deterministic
// iteration.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.templates)+len(r.lazy))
	for id := range r.templates {
		ids = append(ids, id)
	}
	for id := range r.lazy {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
