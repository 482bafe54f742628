package instance

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"
)

// Role is the outcome of the startup handshake.
type Role int

const (
	// Primary serves activation requests from future launches.
	Primary Role = iota
	// Secondary found a live primary, handed off, and should exit.
	Secondary
)

func (r Role) String() string {
	if r == Secondary {
		return "secondary"
	}
	return "primary"
}

// activationPayload is a pure liveness signal. The primary ignores the
// bytes; any non-empty write activates it.
const activationPayload = "hey"

// Probe tries to reach a running primary instance. Retries tolerate a
// primary that is still mid-startup. On success the activation payload is
// sent and the caller should exit without creating any window.
func Probe(socketPath string, attempts int, delay time.Duration) Role {
	for i := 0; i < attempts; i++ {
		conn, err := net.DialTimeout("unix", socketPath, delay)
		if err == nil {
			if _, werr := conn.Write([]byte(activationPayload)); werr != nil {
				log.Printf("[INSTANCE] Failed to send activation: %v", werr)
			}
			conn.Close()
			return Secondary
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return Primary
}

// Coordinator is the primary side of the single-instance protocol. Each
// inbound connection triggers one activation, marshaled onto the UI loop
// through the dispatch function; the accept goroutine never touches
// window state directly.
type Coordinator struct {
	socketPath string
	dispatch   func(func())
	activate   func()

	mu       sync.Mutex
	listener *net.UnixListener
	running  bool
}

func NewCoordinator(socketPath string, dispatch func(func()), activate func()) *Coordinator {
	return &Coordinator{
		socketPath: socketPath,
		dispatch:   dispatch,
		activate:   activate,
	}
}

// Start binds the endpoint and begins accepting in the background. A
// stale socket left by an unclean shutdown is removed before binding; the
// bind is retried once after a second cleanup. Callers treat a returned
// error as loss of single-instance protection, not as fatal.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("coordinator already running")
	}

	if _, err := os.Stat(c.socketPath); err == nil {
		os.Remove(c.socketPath)
	}

	listener, err := net.Listen("unix", c.socketPath)
	if err != nil {
		os.Remove(c.socketPath)
		listener, err = net.Listen("unix", c.socketPath)
		if err != nil {
			return fmt.Errorf("failed to bind instance socket: %w", err)
		}
	}

	c.listener = listener.(*net.UnixListener)
	c.running = true
	log.Printf("[INSTANCE] Listening on %s", c.socketPath)

	go c.acceptLoop()
	return nil
}

func (c *Coordinator) acceptLoop() {
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("[INSTANCE] Accept failed: %v", err)
			continue
		}
		go c.handleConnection(conn)
	}
}

// handleConnection drains whatever the secondary wrote and posts one
// activation. The payload content is deliberately ignored.
func (c *Coordinator) handleConnection(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, 64)
	if _, err := conn.Read(buf); err != nil {
		log.Printf("[INSTANCE] Failed to read activation: %v", err)
		return
	}

	c.dispatch(c.activate)
}

// Stop closes the endpoint and removes the socket file. Safe to call when
// never started.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	if c.listener != nil {
		c.listener.Close()
	}
	if _, err := os.Stat(c.socketPath); err == nil {
		os.Remove(c.socketPath)
	}
	log.Printf("[INSTANCE] Stopped")
	return nil
}
