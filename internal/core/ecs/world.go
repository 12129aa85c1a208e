package ecs

import "time"

// Registry tracks all component stores and supports bulk cleanup on entity destroy.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 8),
	}
}

// Register adds a component store to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}

type pendingDestroy struct {
	id  EntityID
	due time.Time
}

// World is the top-level entity container. It owns the entity pool, the
// store registry, and a deferred destruction queue. Destruction is
// two-phase: an entity is queued with a grace deadline (so observers see
// the death before the entity vanishes) and physically removed by
// CleanupSystem once the deadline passes.
type World struct {
	pool         *EntityPool
	registry     *Registry
	destroyQueue []pendingDestroy
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]pendingDestroy, 0, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues an entity for removal once the grace deadline
// passes. Queuing the same entity twice is harmless: the pool's
// generation check makes the second destroy a no-op.
func (w *World) MarkForDestruction(id EntityID, due time.Time) {
	w.destroyQueue = append(w.destroyQueue, pendingDestroy{id: id, due: due})
}

// FlushDue destroys all queued entities whose grace deadline has passed
// and clears their components. Returns the ids that were removed.
func (w *World) FlushDue(now time.Time) []EntityID {
	if len(w.destroyQueue) == 0 {
		return nil
	}
	var removed []EntityID
	remaining := w.destroyQueue[:0]
	for _, p := range w.destroyQueue {
		if p.due.After(now) {
			remaining = append(remaining, p)
			continue
		}
		if w.pool.Alive(p.id) {
			w.registry.RemoveAll(p.id)
			w.pool.Destroy(p.id)
			removed = append(removed, p.id)
		}
	}
	w.destroyQueue = remaining
	return removed
}

// PendingDestroy reports whether the entity is queued for removal.
func (w *World) PendingDestroy(id EntityID) bool {
	for _, p := range w.destroyQueue {
		if p.id == id {
			return true
		}
	}
	return false
}
