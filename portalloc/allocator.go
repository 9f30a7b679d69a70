// Package portalloc hands out TCP ports that daemons and tests spawned on the
// same machine can bind without racing each other. A port is only returned
// when it both accepts a loopback bind right now and its lock file could be
// claimed, so cooperating processes agree on who owns what through the lock
// directory alone.
package portalloc

import (
	"context"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"code.cloudfoundry.org/clock"
	metrics "github.com/docker/go-metrics"
	"github.com/pkg/errors"
	"go.etcd.io/etcd/client/pkg/v3/fileutil"

	"github.com/dmgav/yugabyte-db/errdefs"
	"github.com/dmgav/yugabyte-db/log"
)

const (
	// DefaultLockDir is shared by every process on the machine that wants
	// to cooperate on port ownership.
	DefaultLockDir = "/tmp/yb-port-locks"

	// DefaultMinPort keeps candidates clear of the kernel's own ephemeral
	// range, so a port we hand out is not snatched by an outgoing
	// connection in the meantime.
	DefaultMinPort = 40000
	DefaultMaxPort = 65535

	DefaultAttempts = 1000
)

// Config holds the tunables of an Allocator. Zero fields take the defaults
// above.
type Config struct {
	// LockDir is the directory holding one lock file per claimed port. It
	// is created on first use.
	LockDir string

	// MinPort and MaxPort bound the candidate range, inclusive.
	MinPort uint16
	MaxPort uint16

	// Attempts caps how many candidate ports a single allocation may try
	// before giving up.
	Attempts int

	// Rand draws candidate ports. Defaults to a source seeded from Clock.
	Rand *rand.Rand

	// Clock seeds the default Rand.
	Clock clock.Clock
}

// DefaultConfig returns the default allocator configuration.
func DefaultConfig() *Config {
	return &Config{
		LockDir:  DefaultLockDir,
		MinPort:  DefaultMinPort,
		MaxPort:  DefaultMaxPort,
		Attempts: DefaultAttempts,
	}
}

// Allocator picks free ports at random within its range and claims them
// through lock files. Safe for concurrent use.
type Allocator struct {
	lockDir  string
	minPort  uint16
	maxPort  uint16
	attempts int

	mu   sync.Mutex
	rand *rand.Rand
}

// New creates an Allocator from c. A nil c means all defaults.
func New(c *Config) *Allocator {
	if c == nil {
		c = DefaultConfig()
	}
	a := &Allocator{
		lockDir:  c.LockDir,
		minPort:  c.MinPort,
		maxPort:  c.MaxPort,
		attempts: c.Attempts,
		rand:     c.Rand,
	}
	if a.lockDir == "" {
		a.lockDir = DefaultLockDir
	}
	if a.minPort == 0 {
		a.minPort = DefaultMinPort
	}
	if a.maxPort == 0 {
		a.maxPort = DefaultMaxPort
	}
	if a.attempts == 0 {
		a.attempts = DefaultAttempts
	}
	if a.rand == nil {
		clk := c.Clock
		if clk == nil {
			clk = clock.NewClock()
		}
		a.rand = rand.New(rand.NewSource(clk.Now().UnixNano()))
	}
	return a
}

// AllocateFreePort returns a port in the allocator's range that accepted a
// loopback bind probe and whose lock file was free to claim. The caller keeps
// the claim until it releases the returned lock; the probe listener itself is
// already closed, so the port is bindable by whatever the caller launches.
//
// Exhausting the attempt budget returns a resource-exhausted error. Whether
// that is fatal is the caller's call.
func (a *Allocator) AllocateFreePort(ctx context.Context) (uint16, *PortLock, error) {
	if err := os.MkdirAll(a.lockDir, 0o777); err != nil {
		return 0, nil, errors.Wrapf(err, "creating port lock directory %s", a.lockDir)
	}

	done := metrics.StartTimer(allocationLatency)
	defer done()

	for attempt := 0; attempt < a.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		port := a.draw()

		// The probe stays open while the lock is taken, so another
		// local process cannot bind the port between the two steps.
		probe, err := net.Listen("tcp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))))
		if err != nil {
			allocationAttempts.WithValues("bind-busy").Inc()
			log.G(ctx).WithField("port", port).Debugf("bind probe failed: %v", err)
			continue
		}

		path := a.lockPath(port)
		lock, err := fileutil.TryLockFile(path, os.O_RDWR|os.O_CREATE, 0o644)
		probe.Close()
		if err != nil {
			allocationAttempts.WithValues("lock-busy").Inc()
			log.G(ctx).WithField("port", port).Debugf("port lock not available: %v", err)
			continue
		}

		allocationAttempts.WithValues("bound").Inc()
		log.G(ctx).WithField("port", port).Debug("allocated free port")
		return port, &PortLock{file: lock, path: path, port: port}, nil
	}

	return 0, nil, errdefs.ErrResourceExhausted(
		"free port",
		"no bindable and lockable port found in range [%d, %d] after %d attempts",
		a.minPort, a.maxPort, a.attempts,
	)
}

func (a *Allocator) draw() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.minPort + uint16(a.rand.Intn(int(a.maxPort)-int(a.minPort)+1))
}

func (a *Allocator) lockPath(port uint16) string {
	return filepath.Join(a.lockDir, strconv.Itoa(int(port))+".lck")
}

// PortLock is the cross-process claim on an allocated port. Releasing drops
// the claim; the lock file itself stays behind for the next claimant.
type PortLock struct {
	mu   sync.Mutex
	file *fileutil.LockedFile
	path string
	port uint16
}

// Port returns the claimed port.
func (l *PortLock) Port() uint16 {
	return l.port
}

// Path returns the lock file backing the claim.
func (l *PortLock) Path() string {
	return l.path
}

// Release drops the claim. Calling it again is a no-op.
func (l *PortLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return errors.Wrapf(err, "releasing port lock %s", l.path)
}

var (
	defaultOnce      sync.Once
	defaultAllocator *Allocator
)

// AllocateFreePort allocates from a shared default Allocator.
func AllocateFreePort(ctx context.Context) (uint16, *PortLock, error) {
	defaultOnce.Do(func() {
		defaultAllocator = New(nil)
	})
	return defaultAllocator.AllocateFreePort(ctx)
}
