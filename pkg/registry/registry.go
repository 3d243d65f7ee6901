package registry

import (
	"github.com/pkg/errors"

	"github.com/go-go-golems/parley/pkg/providers"
	"github.com/go-go-golems/parley/pkg/providers/ollama"
	"github.com/go-go-golems/parley/pkg/providers/openai"
)

// Registry maps configured provider ids to their adapters. It is built once
// from the loaded configuration and read-only afterwards; credentials are
// never mutated at runtime.
type Registry struct {
	adapters  map[string]providers.Adapter
	defaultID string
}

// New builds a registry from already constructed adapters. The default id
// may be empty, in which case every caller must name a provider explicitly.
func New(defaultID string, adapters map[string]providers.Adapter) (*Registry, error) {
	if defaultID != "" {
		if _, ok := adapters[defaultID]; !ok {
			return nil, errors.Errorf("default provider %s is not configured", defaultID)
		}
	}
	return &Registry{adapters: adapters, defaultID: defaultID}, nil
}

// FromSettings constructs one adapter per configured provider, selecting the
// implementation by backend family.
func FromSettings(defaultID string, settings []providers.Settings) (*Registry, error) {
	adapters := map[string]providers.Adapter{}

	for _, s := range settings {
		if s.ID == "" {
			return nil, errors.New("provider configuration without an id")
		}
		if _, ok := adapters[s.ID]; ok {
			return nil, errors.Errorf("duplicate provider id %s", s.ID)
		}

		var adapter providers.Adapter
		var err error
		switch s.Kind {
		case providers.KindStructuredChat:
			adapter, err = openai.New(s)
		case providers.KindGenericCompletion:
			adapter, err = ollama.New(s)
		default:
			return nil, errors.Errorf("provider %s: unknown kind %q", s.ID, s.Kind)
		}
		if err != nil {
			return nil, err
		}

		adapters[s.ID] = adapter
	}

	return New(defaultID, adapters)
}

// Resolve returns the adapter for id. The default provider is used only when
// id is omitted entirely; an unknown id is an error, never a fallback.
func (r *Registry) Resolve(id string) (providers.Adapter, error) {
	if id == "" {
		id = r.defaultID
	}
	adapter, ok := r.adapters[id]
	if !ok {
		return nil, errors.Wrapf(providers.ErrUnknownProvider, "%q", id)
	}
	return adapter, nil
}

// DefaultID returns the configured default provider id, possibly empty.
func (r *Registry) DefaultID() string {
	return r.defaultID
}

// IDs lists the configured provider ids.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}
