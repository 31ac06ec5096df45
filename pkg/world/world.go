package world

import (
	"sync"

	"github.com/google/uuid"
)

// ChunkStore persists and retrieves realized chunks. It is implemented by
// the region file store; World depends only on this interface so the
// persistence layer can import world's types without a cycle.
type ChunkStore interface {
	Load(pos ChunkPos) (*Chunk, bool, error)
	Save(c *Chunk) error
}

// dimensionState holds everything mutable about one dimension: its chunk
// cache and the entities living in it.
type dimensionState struct {
	chunks        map[ChunkPos]*Chunk
	blockEntities map[BlockPos]*BlockEntity
	droppedItems  map[uuid.UUID]*DroppedItem
	mobs          map[uuid.UUID]*Mob
}

func newDimensionState() *dimensionState {
	return &dimensionState{
		chunks:        make(map[ChunkPos]*Chunk),
		blockEntities: make(map[BlockPos]*BlockEntity),
		droppedItems:  make(map[uuid.UUID]*DroppedItem),
		mobs:          make(map[uuid.UUID]*Mob),
	}
}

// World is the aggregate root for one running server: chunk generation and
// cache, persistence, and every entity kind that isn't a player session.
type World struct {
	mu   sync.RWMutex
	gen  *Generator
	store ChunkStore
	dims map[DimensionID]*dimensionState
	tick uint64
}

// NewWorld creates a World for the given seed. store may be nil, in which
// case chunks are generated on demand and never persisted.
func NewWorld(seed uint64, store ChunkStore) *World {
	return &World{
		gen:   NewGenerator(seed),
		store: store,
		dims:  map[DimensionID]*dimensionState{DimensionOverworld: newDimensionState()},
	}
}

func (w *World) dimension(id DimensionID) *dimensionState {
	d, ok := w.dims[id]
	if !ok {
		d = newDimensionState()
		w.dims[id] = d
	}
	return d
}

// Chunk returns the realized chunk at pos, loading it from the store or
// generating it if it isn't cached yet.
func (w *World) Chunk(pos ChunkPos) (*Chunk, error) {
	w.mu.RLock()
	if d, ok := w.dims[pos.Dimension]; ok {
		if c, ok := d.chunks[pos]; ok {
			w.mu.RUnlock()
			return c, nil
		}
	}
	w.mu.RUnlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.dimension(pos.Dimension)
	if c, ok := d.chunks[pos]; ok {
		return c, nil
	}

	if w.store != nil {
		if c, ok, err := w.store.Load(pos); err != nil {
			return nil, err
		} else if ok {
			d.chunks[pos] = c
			return c, nil
		}
	}

	c := w.gen.GenerateChunk(pos.Dimension, pos.X, pos.Z)
	d.chunks[pos] = c
	return c, nil
}

// Voxel returns the voxel at a world-space block position.
func (w *World) Voxel(pos BlockPos) (Voxel, error) {
	c, err := w.Chunk(pos.ChunkOf())
	if err != nil {
		return Voxel{}, err
	}
	lx, lz := int(pos.X&0x0F), int(pos.Z&0x0F)
	return c.Voxel(lx, int(pos.Y), lz), nil
}

// SetVoxel writes a voxel at a world-space block position, realizing the
// containing chunk first if needed.
func (w *World) SetVoxel(pos BlockPos, v Voxel) error {
	c, err := w.Chunk(pos.ChunkOf())
	if err != nil {
		return err
	}
	lx, lz := int(pos.X&0x0F), int(pos.Z&0x0F)
	c.SetVoxel(lx, int(pos.Y), lz, v)
	return nil
}

// SetBlockEntity records or replaces the block entity at pos.
func (w *World) SetBlockEntity(be *BlockEntity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dimension(be.Pos.Dimension).blockEntities[be.Pos] = be
}

// BlockEntity returns the block entity at pos, if any.
func (w *World) BlockEntity(pos BlockPos) (*BlockEntity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.dims[pos.Dimension]
	if !ok {
		return nil, false
	}
	be, ok := d.blockEntities[pos]
	return be, ok
}

// RemoveBlockEntity deletes the block entity at pos, if any.
func (w *World) RemoveBlockEntity(pos BlockPos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d, ok := w.dims[pos.Dimension]; ok {
		delete(d.blockEntities, pos)
	}
}

// AddDroppedItem registers a dropped item entity.
func (w *World) AddDroppedItem(item *DroppedItem) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dimension(item.Dimension).droppedItems[item.ID] = item
}

// RemoveDroppedItem removes a dropped item entity (picked up or expired).
func (w *World) RemoveDroppedItem(dim DimensionID, id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d, ok := w.dims[dim]; ok {
		delete(d.droppedItems, id)
	}
}

// DroppedItems returns a snapshot of dropped items in a dimension.
func (w *World) DroppedItems(dim DimensionID) []*DroppedItem {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.dims[dim]
	if !ok {
		return nil
	}
	out := make([]*DroppedItem, 0, len(d.droppedItems))
	for _, item := range d.droppedItems {
		out = append(out, item)
	}
	return out
}

// AddMob registers a mob entity.
func (w *World) AddMob(m *Mob) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dimension(m.Dimension).mobs[m.ID] = m
}

// RemoveMob removes a mob entity.
func (w *World) RemoveMob(dim DimensionID, id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d, ok := w.dims[dim]; ok {
		delete(d.mobs, id)
	}
}

// Mobs returns a snapshot of mobs in a dimension.
func (w *World) Mobs(dim DimensionID) []*Mob {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.dims[dim]
	if !ok {
		return nil
	}
	out := make([]*Mob, 0, len(d.mobs))
	for _, m := range d.mobs {
		out = append(out, m)
	}
	return out
}

// Tick advances the world clock by one and returns the new tick count.
// Callers drive mob/item simulation from this; the core itself does not
// run any gameplay logic on tick.
func (w *World) Tick() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tick++
	return w.tick
}

// CurrentTick returns the current tick count without advancing it.
func (w *World) CurrentTick() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tick
}

// SaveDirtyChunks persists every dirty chunk in a dimension through the
// store and clears their dirty flags. A nil store makes this a no-op.
func (w *World) SaveDirtyChunks(dim DimensionID) error {
	if w.store == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.dims[dim]
	if !ok {
		return nil
	}
	for _, c := range d.chunks {
		if !c.Dirty() {
			continue
		}
		if err := w.store.Save(c); err != nil {
			return err
		}
		c.ClearDirty()
	}
	return nil
}
