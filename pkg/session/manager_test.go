package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/stormvale/voxelcore/pkg/errs"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry(0)
	p := &Player{EntityID: uuid.New()}
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := r.Get(p.EntityID)
	if !ok || got != p {
		t.Fatalf("Get returned %v, %v, want %v, true", got, ok, p)
	}
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry(0)
	p := &Player{EntityID: uuid.New()}
	r.Register(p)
	r.Unregister(p.EntityID)
	if _, ok := r.Get(p.EntityID); ok {
		t.Fatal("expected player to be gone after Unregister")
	}
	if r.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", r.Count())
	}
}

func TestRegistryUnregisterUnknownIsNoOp(t *testing.T) {
	r := NewRegistry(0)
	r.Unregister(uuid.New())
}

func TestRegistryEnforcesCapacity(t *testing.T) {
	r := NewRegistry(1)
	if err := r.Register(&Player{EntityID: uuid.New()}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := r.Register(&Player{EntityID: uuid.New()})
	if !errors.Is(err, ErrServerFull) {
		t.Fatalf("second Register: got %v, want ErrServerFull", err)
	}
	if !errors.Is(err, errs.Busy) {
		t.Fatalf("second Register: got %v, want a errs.Busy classification", err)
	}
}

func TestRegistryUnlimitedWhenZero(t *testing.T) {
	r := NewRegistry(0)
	for i := 0; i < 50; i++ {
		if err := r.Register(&Player{EntityID: uuid.New()}); err != nil {
			t.Fatalf("Register #%d: %v", i, err)
		}
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry(0)
	p1 := &Player{EntityID: uuid.New()}
	p2 := &Player{EntityID: uuid.New()}
	r.Register(p1)
	r.Register(p2)
	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot len = %d, want 2", len(snap))
	}
}
