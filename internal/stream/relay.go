package stream

import (
	"net"
	"os"
	"os/user"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	// Group name used to grant relay socket access. Members of this
	// group can tail a running recipe's event stream without owning the
	// process.
	relaySocketGroup = "crecipe"

	// File mode applied to the relay's Unix socket.
	relaySocketMode = 0660
)

// Listens on a Unix domain socket and broadcasts every event it is
// given to all currently-connected consumers, newline-delimited JSON per
// connection. It is the transport half of [StructuredEmitter]: the
// daemon no longer executes builds itself, it relays the events the
// engine pushes into the emitter.
type Relay struct {
	socketPath string

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	done     chan struct{}
}

// Returns a Relay that will listen on socketPath.
func NewRelay(socketPath string) *Relay {
	return &Relay{socketPath: socketPath, conns: make(map[net.Conn]struct{}), done: make(chan struct{})}
}

// Opens the Unix socket and begins accepting consumer connections.
func (r *Relay) Start() error {
	os.Remove(r.socketPath)

	listener, err := net.Listen("unix", r.socketPath)
	if err != nil {
		return ErrRelay
	}
	if err := setSocketPermissions(r.socketPath); err != nil {
		listener.Close()
		return err
	}

	r.mu.Lock()
	r.listener = listener
	r.mu.Unlock()

	go r.accept()
	return nil
}

// Restricts socket access to owner and the relay group, matching the
// daemon's own socket permission policy.
func setSocketPermissions(socketPath string) error {
	if err := os.Chmod(socketPath, relaySocketMode); err != nil {
		return ErrRelay
	}
	if g, err := user.LookupGroup(relaySocketGroup); err == nil {
		if gid, err := strconv.Atoi(g.Gid); err == nil {
			if err := os.Chown(socketPath, -1, gid); err != nil {
				log.Warn().Err(err).Str("group", relaySocketGroup).Msg("failed to chgrp relay socket")
			}
		}
	}
	return nil
}

func (r *Relay) accept() {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			select {
			case <-r.done:
				return
			default:
				log.Error().Err(err).Msg("relay accept error")
				continue
			}
		}

		r.mu.Lock()
		r.conns[conn] = struct{}{}
		r.mu.Unlock()
	}
}

// Writes data to every connected consumer, dropping any
// connection that errors on write.
func (r *Relay) Broadcast(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for conn := range r.conns {
		if _, err := conn.Write(data); err != nil {
			conn.Close()
			delete(r.conns, conn)
		}
	}
}

// Closes the listener and every open connection.
func (r *Relay) Stop() error {
	close(r.done)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listener != nil {
		r.listener.Close()
	}
	for conn := range r.conns {
		conn.Close()
		delete(r.conns, conn)
	}

	os.Remove(r.socketPath)
	return nil
}
