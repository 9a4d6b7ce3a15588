package remote

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
)

type disabledStore struct {
	backend string
}

// Disabled returns a Store whose every operation reports ErrNotConfigured
// without touching the network.
func Disabled(backend string) Store {
	return &disabledStore{backend: backend}
}

func (d *disabledStore) Backend() string  { return d.backend }
func (d *disabledStore) Configured() bool { return false }

func (d *disabledStore) Exists(context.Context, string) (string, bool) {
	return "", false
}

func (d *disabledStore) Put(context.Context, string, []byte) error {
	return ErrNotConfigured
}

func (d *disabledStore) Delete(context.Context, string) error {
	return ErrNotConfigured
}

func (d *disabledStore) List(context.Context) (mapset.Set[string], error) {
	return mapset.NewSet[string](), ErrNotConfigured
}

func (d *disabledStore) Fetch(context.Context, string) ([]byte, bool) {
	return nil, false
}
