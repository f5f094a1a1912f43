// Package registry is an in-memory context broker. It serves the same context
// entities API the client speaks, which makes it usable as a local sandbox and
// as a test double.
package registry

import (
	"errors"
	"sort"

	"github.com/go-logr/logr"

	"github.com/joelanford/ngsi-client-go/api"
	"github.com/joelanford/ngsi-client-go/codec"
	"github.com/joelanford/ngsi-client-go/internal/util"
)

// DefaultVersion is the broker version reported by /version.
const DefaultVersion = "0.28.0"

// ErrNotFound is returned by lookups of entities the registry does not hold.
var ErrNotFound = errors.New("entity not found")

type key struct {
	Type string
	ID   string
}

type record struct {
	Type       string
	ID         string
	Attributes []api.Attribute
}

// Registry holds entities by type. Use New to create one.
type Registry struct {
	entities util.SyncMap[key, *record]
	failures util.SyncMap[key, api.StatusCode]

	Log logr.Logger
	// AuthToken, when set, must match the X-Auth-Token header of every request.
	AuthToken string
	Version   string
}

func New() *Registry {
	return &Registry{
		entities: util.NewSyncMap[key, *record](),
		failures: util.NewSyncMap[key, api.StatusCode](),
		Log:      logr.Discard(),
		Version:  DefaultVersion,
	}
}

func (r *Registry) MustUpsert(entityType string, e *api.Entity) {
	if err := r.Upsert(entityType, e); err != nil {
		panic(err)
	}
}

// Upsert stores e under entityType, merging its fields into any existing
// entity with the same id.
func (r *Registry) Upsert(entityType string, e *api.Entity) error {
	if e == nil {
		return errors.New("nil entity cannot be upserted")
	}
	if e.ID == "" {
		return errors.New("entity must have an ID")
	}
	if entityType == "" {
		return errors.New("entity type is required")
	}
	r.upsertAttributes(entityType, api.QualifiedID(entityType, e.ID), codec.Codec{Log: r.Log}.ToAttributes(e.Data))
	return nil
}

func (r *Registry) upsertAttributes(entityType, qualifiedID string, attrs []api.Attribute) *record {
	return r.entities.Update(key{Type: entityType, ID: qualifiedID}, func(old *record, ok bool) *record {
		merged := &record{Type: entityType, ID: qualifiedID}
		if ok {
			merged.Attributes = append(merged.Attributes, old.Attributes...)
		}
		for _, a := range attrs {
			replaced := false
			for i := range merged.Attributes {
				if merged.Attributes[i].Name == a.Name {
					merged.Attributes[i] = a
					replaced = true
					break
				}
			}
			if !replaced {
				merged.Attributes = append(merged.Attributes, a)
			}
		}
		return merged
	})
}

// Delete removes the entity id of entityType and reports whether it existed.
func (r *Registry) Delete(entityType, id string) bool {
	k := key{Type: entityType, ID: api.QualifiedID(entityType, id)}
	r.failures.Delete(k)
	return r.entities.Delete(k)
}

// Get decodes the stored entity id of entityType.
func (r *Registry) Get(entityType, id string) (*api.Entity, error) {
	rec, ok := r.entities.GetCheck(key{Type: entityType, ID: api.QualifiedID(entityType, id)})
	if !ok {
		return nil, ErrNotFound
	}
	data, err := codec.Codec{Log: r.Log}.FromAttributes(rec.Attributes)
	if err != nil {
		return nil, err
	}
	return &api.Entity{ID: id, Data: data}, nil
}

// Attributes returns the stored wire form of the entity id of entityType.
func (r *Registry) Attributes(entityType, id string) ([]api.Attribute, bool) {
	rec, ok := r.entities.GetCheck(key{Type: entityType, ID: api.QualifiedID(entityType, id)})
	if !ok {
		return nil, false
	}
	return append([]api.Attribute(nil), rec.Attributes...), true
}

// Len returns the number of stored entities across all types.
func (r *Registry) Len() int {
	return r.entities.Len()
}

// Fail makes collection responses report the entity id of entityType with
// status instead of 200. A later Delete clears it.
func (r *Registry) Fail(entityType, id string, status api.StatusCode) {
	r.failures.Set(key{Type: entityType, ID: api.QualifiedID(entityType, id)}, status)
}

func (r *Registry) records(entityType string) []*record {
	var out []*record
	for _, rec := range r.entities.Values() {
		if rec.Type == entityType {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
