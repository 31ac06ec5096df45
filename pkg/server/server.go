// Package server wires the world, persistence, streaming, replication,
// and transport layers into one running voxel world server: accepting
// connections, driving the simulation tick, and tearing everything down
// cleanly on shutdown.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stormvale/voxelcore/pkg/config"
	"github.com/stormvale/voxelcore/pkg/region"
	"github.com/stormvale/voxelcore/pkg/session"
	"github.com/stormvale/voxelcore/pkg/transport"
	"github.com/stormvale/voxelcore/pkg/world"
)

// TickRate is the simulation tick frequency, matched to the 20Hz tick the
// wire protocol's quantization and movement model are tuned against.
const TickRate = 20

// Server ties the world, persistence, and networking layers together for
// one running instance.
type Server struct {
	cfg config.Config
	log zerolog.Logger

	world    *world.World
	store    *region.Store
	listener *transport.Listener
	registry *session.Registry
	http     *http.Server

	mu     sync.RWMutex
	states map[uuid.UUID]*playerState

	stopCh chan struct{}
}

// New builds a Server from cfg without starting it. The world's region
// store is opened (and its directory created if needed) as part of
// construction, so a New caller that discards the error is also
// discarding a disk failure.
func New(cfg config.Config, log zerolog.Logger) (*Server, error) {
	store, err := region.New(cfg.World.RegionDir)
	if err != nil {
		return nil, fmt.Errorf("server: open region store: %w", err)
	}

	seed := cfg.World.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Info().Int64("seed", seed).Msg("world seed")

	w := world.NewWorld(uint64(seed), store)

	listener, err := transport.NewListener(cfg.UnreliableAddress)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("server: open unreliable listener: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		world:    w,
		store:    store,
		listener: listener,
		registry: session.NewRegistry(cfg.MaxPlayers),
		states:   make(map[uuid.UUID]*playerState),
		stopCh:   make(chan struct{}),
	}
	s.http = &http.Server{
		Addr:    cfg.ReliableAddress,
		Handler: http.HandlerFunc(listener.Handler),
	}
	return s, nil
}

// Start begins accepting connections and driving the simulation tick. It
// returns once the reliable listener is bound; both the accept loop and
// the tick loop continue running in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ReliableAddress)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.ReliableAddress, err)
	}
	s.log.Info().Str("address", s.cfg.ReliableAddress).Msg("reliable listener started")

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("reliable listener stopped")
		}
	}()

	go s.acceptLoop(ctx)
	go s.tickLoop(ctx)
	return nil
}

// Stop shuts the server down: the reliable listener, every open session,
// the unreliable socket, and the region store, in that order.
func (s *Server) Stop() {
	close(s.stopCh)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("reliable listener shutdown")
	}

	s.mu.RLock()
	states := make([]*playerState, 0, len(s.states))
	for _, ps := range s.states {
		states = append(states, ps)
	}
	s.mu.RUnlock()
	for _, ps := range states {
		session.Disconnect(ps.player.Conn, session.ReasonShuttingDown)
	}

	if err := s.listener.Close(); err != nil {
		s.log.Warn().Err(err).Msg("unreliable listener close")
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn().Err(err).Msg("region store close")
	}
}

// StopChan reports when the server has been asked to shut down, mirroring
// the shape callers use to race an OS signal against an internal stop.
func (s *Server) StopChan() <-chan struct{} { return s.stopCh }

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept(ctx)
		if err != nil {
			select {
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			default:
				s.log.Warn().Err(err).Msg("accept")
				continue
			}
		}
		go s.handleConnection(ctx, conn)
	}
}
