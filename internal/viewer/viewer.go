// Package viewer holds the view state of the saved-plants list: a snapshot
// of the collection, the selected record and whether a refresh is running.
package viewer

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/kalambet/botanic/internal/collection"
)

// Source is the part of the collection store the viewer reads and deletes from.
type Source interface {
	ListPlants(ctx context.Context) ([]collection.Plant, error)
	DeletePlant(ctx context.Context, id string) error
}

// Viewer is safe for concurrent use.
type Viewer struct {
	src    Source
	logger *slog.Logger

	mu       sync.Mutex
	plants   []collection.Plant
	selected string
	busy     bool
}

func New(src Source) *Viewer {
	return &Viewer{src: src, logger: slog.Default()}
}

// Load replaces the snapshot with the stored collection. On error the
// previous snapshot is kept.
func (v *Viewer) Load(ctx context.Context) error {
	plants, err := v.src.ListPlants(ctx)
	if err != nil {
		v.logger.Error("loading plants", "error", err)
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.plants = plants
	if v.selected != "" && v.indexLocked(v.selected) < 0 {
		v.selected = ""
	}
	return nil
}

// Refresh reloads the snapshot while Busy reports true.
func (v *Viewer) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.busy = true
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.busy = false
		v.mu.Unlock()
	}()
	return v.Load(ctx)
}

// Busy reports whether a Refresh is in progress.
func (v *Viewer) Busy() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.busy
}

// Plants returns a copy of the snapshot in collection order.
func (v *Viewer) Plants() []collection.Plant {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.plants)
}

// Select marks the record with id as selected. An unknown id clears the
// selection and returns false.
func (v *Viewer) Select(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.indexLocked(id) < 0 {
		v.selected = ""
		return false
	}
	v.selected = id
	return true
}

// Deselect clears the selection.
func (v *Viewer) Deselect() {
	v.mu.Lock()
	v.selected = ""
	v.mu.Unlock()
}

// Selected returns the selected record.
func (v *Viewer) Selected() (collection.Plant, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexLocked(v.selected)
	if v.selected == "" || i < 0 {
		return collection.Plant{}, false
	}
	return v.plants[i], true
}

// Remove deletes the record from the store and then from the snapshot.
// The snapshot is left alone when the delete fails.
func (v *Viewer) Remove(ctx context.Context, id string) error {
	if err := v.src.DeletePlant(ctx, id); err != nil {
		v.logger.Error("deleting plant", "id", id, "error", err)
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.plants = slices.DeleteFunc(v.plants, func(p collection.Plant) bool { return p.ID == id })
	if v.selected == id {
		v.selected = ""
	}
	return nil
}

func (v *Viewer) indexLocked(id string) int {
	return slices.IndexFunc(v.plants, func(p collection.Plant) bool { return p.ID == id })
}
