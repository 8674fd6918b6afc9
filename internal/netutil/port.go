package netutil

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/giantswarm/waitforit/internal/sentinel"
)

// ErrNegativeCount indicates a negative number of ports was requested.
const ErrNegativeCount = sentinel.Error("port count must not be negative")

// maxPortRetries is the maximum number of attempts to find a port not already
// in the registry.
const maxPortRetries = 20

// PortRegistry tracks ports currently handed out by this process. The kernel
// may return a port again as soon as its listener is closed; the registry
// closes that window between concurrent callers.
type PortRegistry struct {
	mu    sync.Mutex
	ports map[int]struct{}
	log   *slog.Logger
}

// NewPortRegistry creates a new PortRegistry ready for use.
// If logger is nil, slog.Default() is used.
func NewPortRegistry(logger *slog.Logger) *PortRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortRegistry{
		ports: make(map[int]struct{}),
		log:   logger,
	}
}

// reserve registers port. It reports false if the port was already taken.
func (r *PortRegistry) reserve(port int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ports[port]; ok {
		return false
	}
	r.ports[port] = struct{}{}
	return true
}

// Release removes ports from the registry, allowing them to be reused.
func (r *PortRegistry) Release(ports ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range ports {
		delete(r.ports, p)
	}
}

// listenFree asks the kernel for a free loopback port, skipping ports already
// in the registry. The returned listener holds the port; the port is also
// registered.
func (r *PortRegistry) listenFree() (*net.TCPListener, int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, 0, fmt.Errorf("resolve tcp address: %w", err)
	}

	for range maxPortRetries {
		l, err := net.ListenTCP("tcp", addr)
		if err != nil {
			return nil, 0, fmt.Errorf("listen on tcp address: %w", err)
		}
		tcpAddr, ok := l.Addr().(*net.TCPAddr)
		if !ok {
			_ = l.Close()
			return nil, 0, fmt.Errorf("unexpected address type: %T", l.Addr())
		}
		if r.reserve(tcpAddr.Port) {
			return l, tcpAddr.Port, nil
		}
		r.log.Debug("port already in registry, retrying", "port", tcpAddr.Port)
		_ = l.Close()
	}
	return nil, 0, fmt.Errorf("allocate unique port: exhausted %d attempts", maxPortRetries)
}

// Allocate returns n distinct free ports. All listeners are held open until
// every port has been found, so the kernel cannot hand out one port twice.
// On failure nothing stays registered. Callers must Release the ports when
// they are no longer needed.
func (r *PortRegistry) Allocate(n int) ([]int, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrNegativeCount, n)
	}
	listeners := make([]*net.TCPListener, 0, n)
	ports := make([]int, 0, n)

	closeAll := func() {
		for i, l := range listeners {
			if err := l.Close(); err != nil {
				r.log.Warn("close listener after port allocation", "port", ports[i], "error", err)
			}
		}
	}

	for i := range n {
		l, p, err := r.listenFree()
		if err != nil {
			// Close the listeners BEFORE releasing the ports so no other
			// caller can be handed one while it is still bound here.
			closeAll()
			r.Release(ports...)
			return nil, fmt.Errorf("allocate port %d of %d: %w", i+1, n, err)
		}
		listeners = append(listeners, l)
		ports = append(ports, p)
	}

	closeAll()
	return ports, nil
}

// AllocateNamed returns one free port per name.
func (r *PortRegistry) AllocateNamed(names []string) (map[string]int, error) {
	if len(names) == 0 {
		return nil, nil
	}
	ports, err := r.Allocate(len(names))
	if err != nil {
		return nil, err
	}
	named := make(map[string]int, len(names))
	for i, name := range names {
		named[name] = ports[i]
	}
	return named, nil
}
