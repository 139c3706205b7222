package usecase

import (
	"sync/atomic"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// PersonalityResolver resolves personality names into profiles
type PersonalityResolver interface {
	Resolve(name string) domain.Profile
}

// PersonalityRegistry serves the current catalog. Reloads swap the whole catalog.
type PersonalityRegistry struct {
	catalog atomic.Pointer[domain.Catalog]
}

// NewPersonalityRegistry creates a registry holding catalog
func NewPersonalityRegistry(catalog *domain.Catalog) *PersonalityRegistry {
	r := &PersonalityRegistry{}
	r.catalog.Store(catalog)
	return r
}

// Resolve returns the merged profile for name, or the default profile
func (r *PersonalityRegistry) Resolve(name string) domain.Profile {
	return r.catalog.Load().Resolve(name)
}

// Has reports whether name is selectable
func (r *PersonalityRegistry) Has(name string) bool {
	return r.catalog.Load().Has(name)
}

// Names lists selectable personalities
func (r *PersonalityRegistry) Names() []string {
	return r.catalog.Load().Names()
}

// Replace swaps in a new catalog
func (r *PersonalityRegistry) Replace(catalog *domain.Catalog) {
	if catalog == nil {
		return
	}
	r.catalog.Store(catalog)
}
