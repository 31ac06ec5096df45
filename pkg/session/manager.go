package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/stormvale/voxelcore/pkg/errs"
)

// ErrServerFull is returned by Registry.Register when the server is
// already at its configured player capacity.
var ErrServerFull = errors.New("session: server full")

// Disconnect reasons used when closing a connection. These are sent
// verbatim in ServerDisconnect.Reason / ClientDisconnect.Reason.
const (
	ReasonBadRequest     = "bad_request"
	ReasonUnauthorized   = "unauthorized"
	ReasonServerFull     = "server full"
	ReasonConnectionLost = "connection lost"
	ReasonShuttingDown   = "server shutting down"
)

// Registry tracks every currently handshaken Player, keyed by entity ID.
// It is the server-side analogue of the teacher's Server.players map:
// same read-mostly mutex discipline, generalized from an int32 entity ID
// to a uuid.UUID.
type Registry struct {
	mu         sync.RWMutex
	players    map[uuid.UUID]*Player
	maxPlayers int
}

// NewRegistry creates an empty registry capped at maxPlayers concurrent
// connections. maxPlayers <= 0 means unlimited.
func NewRegistry(maxPlayers int) *Registry {
	return &Registry{
		players:    make(map[uuid.UUID]*Player),
		maxPlayers: maxPlayers,
	}
}

// Register adds player to the registry, failing with ErrServerFull if
// the configured capacity has already been reached. Callers should
// reject the connection with ReasonServerFull on this error.
func (r *Registry) Register(player *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxPlayers > 0 && len(r.players) >= r.maxPlayers {
		return fmt.Errorf("%w: %w", errs.Busy, ErrServerFull)
	}
	r.players[player.EntityID] = player
	return nil
}

// Unregister removes a player, if present. Safe to call more than once.
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
}

// Get looks up a player by entity ID.
func (r *Registry) Get(id uuid.UUID) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// Count returns the number of currently registered players.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Snapshot returns a stable-order copy of every registered player,
// suitable for iteration by callers that must not hold Registry's lock
// (entity replication, diagnostics).
func (r *Registry) Snapshot() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntityID.String() < out[j].EntityID.String()
	})
	return out
}
