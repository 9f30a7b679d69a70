package portalloc

import (
	"context"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/phayes/permbits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/client/pkg/v3/fileutil"

	"github.com/dmgav/yugabyte-db/errdefs"
)

func testConfig(t *testing.T, minPort, maxPort uint16) *Config {
	return &Config{
		LockDir: t.TempDir(),
		MinPort: minPort,
		MaxPort: maxPort,
		Rand:    rand.New(rand.NewSource(1)),
	}
}

// reservePort finds a port that was just now free by binding port 0 and
// letting the listener go again.
func reservePort(t *testing.T) uint16 {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return uint16(l.Addr().(*net.TCPAddr).Port)
}

func TestAllocateFreePort(t *testing.T) {
	cfg := testConfig(t, 41000, 41099)
	a := New(cfg)

	port, lock, err := a.AllocateFreePort(context.Background())
	require.NoError(t, err)
	require.NotNil(t, lock)
	defer lock.Release()

	assert.GreaterOrEqual(t, port, uint16(41000))
	assert.LessOrEqual(t, port, uint16(41099))
	assert.Equal(t, port, lock.Port())
	assert.Equal(t, filepath.Join(cfg.LockDir, strconv.Itoa(int(port))+".lck"), lock.Path())

	// The probe listener is gone: the caller must be able to bind.
	l, err := net.Listen("tcp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))))
	require.NoError(t, err, "an allocated port must be bindable")
	l.Close()

	perms, err := permbits.Stat(lock.Path())
	require.NoError(t, err)
	assert.True(t, perms.UserRead())
	assert.True(t, perms.UserWrite())
	assert.False(t, perms.GroupWrite())
	assert.False(t, perms.OtherWrite())
}

func TestAllocateDistinctWhileHeld(t *testing.T) {
	a := New(testConfig(t, 41100, 41199))

	port1, lock1, err := a.AllocateFreePort(context.Background())
	require.NoError(t, err)
	defer lock1.Release()

	port2, lock2, err := a.AllocateFreePort(context.Background())
	require.NoError(t, err)
	defer lock2.Release()

	assert.NotEqual(t, port1, port2, "a held port must never be handed out again")
}

func TestReleaseThenReacquire(t *testing.T) {
	port := reservePort(t)
	cfg := &Config{LockDir: t.TempDir(), MinPort: port, MaxPort: port, Attempts: 10}

	allocated, lock, err := New(cfg).AllocateFreePort(context.Background())
	require.NoError(t, err)
	assert.Equal(t, port, allocated)

	require.NoError(t, lock.Release())
	assert.NoError(t, lock.Release(), "releasing twice is a no-op")

	again, lock2, err := New(cfg).AllocateFreePort(context.Background())
	require.NoError(t, err, "a released port lock must be claimable again")
	defer lock2.Release()
	assert.Equal(t, port, again)
}

func TestAllocateSkipsHeldLock(t *testing.T) {
	dir := t.TempDir()
	port := reservePort(t)
	cfg := &Config{LockDir: dir, MinPort: port, MaxPort: port, Attempts: 5}

	held, err := fileutil.TryLockFile(filepath.Join(dir, strconv.Itoa(int(port))+".lck"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)

	_, _, err = New(cfg).AllocateFreePort(context.Background())
	require.Error(t, err, "a foreign lock must keep the port off limits even though it is bindable")
	assert.True(t, errdefs.IsErrResourceExhausted(err), "expected resource exhaustion, got %v", err)

	require.NoError(t, held.Close())

	allocated, lock, err := New(cfg).AllocateFreePort(context.Background())
	require.NoError(t, err, "the port must be allocatable once the foreign lock is gone")
	defer lock.Release()
	assert.Equal(t, port, allocated)
}

func TestAllocateSkipsBusyPort(t *testing.T) {
	busy, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	port := uint16(busy.Addr().(*net.TCPAddr).Port)

	cfg := &Config{LockDir: t.TempDir(), MinPort: port, MaxPort: port, Attempts: 5}
	_, _, err = New(cfg).AllocateFreePort(context.Background())
	require.Error(t, err, "a port with a live listener must not be allocated")
	assert.True(t, errdefs.IsErrResourceExhausted(err))
}

func TestLockDirCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "locks")
	cfg := &Config{LockDir: dir, MinPort: 41200, MaxPort: 41299, Rand: rand.New(rand.NewSource(1))}

	_, lock, err := New(cfg).AllocateFreePort(context.Background())
	require.NoError(t, err)
	defer lock.Release()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLockDirUnusable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, _, err := New(&Config{LockDir: file}).AllocateFreePort(context.Background())
	require.Error(t, err)
	assert.False(t, errdefs.IsErrResourceExhausted(err), "a lock dir failure is not exhaustion: %v", err)
}

func TestAllocateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(testConfig(t, 41300, 41399)).AllocateFreePort(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentAllocations(t *testing.T) {
	a := New(testConfig(t, 41400, 41599))

	var (
		mu    sync.Mutex
		ports = make(map[uint16]*PortLock)
		wg    sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			port, lock, err := a.AllocateFreePort(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			_, dup := ports[port]
			assert.False(t, dup, "port %d allocated twice", port)
			ports[port] = lock
		}()
	}
	wg.Wait()

	for _, lock := range ports {
		assert.NoError(t, lock.Release())
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, DefaultLockDir, c.LockDir)
	assert.Equal(t, uint16(DefaultMinPort), c.MinPort)
	assert.Equal(t, uint16(DefaultMaxPort), c.MaxPort)
	assert.Equal(t, DefaultAttempts, c.Attempts)
}
