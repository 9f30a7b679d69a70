package portalloc

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/dmgav/yugabyte-db/errdefs"
	"github.com/dmgav/yugabyte-db/log"
)

// diagnosticInterval spaces out lsof runs. A server looping on a busy port
// must not turn into a subprocess storm.
const diagnosticInterval = 30 * time.Second

// CommandRunner runs a diagnostic shell command and returns its combined
// output. The default runner goes through os/exec.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Diagnostics explains bind failures by asking the OS which processes hold
// the contested port. Everything in here is advisory: failures are logged and
// swallowed, and the caller's own outcome never changes.
type Diagnostics struct {
	runner  CommandRunner
	clock   clock.Clock
	limiter *rate.Limiter
}

// NewDiagnostics returns a Diagnostics shelling out through os/exec, rate
// limited to one run per diagnosticInterval.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		runner:  execRunner{},
		clock:   clock.NewClock(),
		limiter: rate.NewLimiter(rate.Every(diagnosticInterval), 1),
	}
}

// ExplainBindFailure logs which processes are listening on addr's port,
// including their ancestry, so the operator can tell which test or daemon
// squats on it. Rate limited; a suppressed or failed run only logs.
func (d *Diagnostics) ExplainBindFailure(ctx context.Context, addr netip.AddrPort) {
	if !d.limiter.AllowN(d.clock.Now(), 1) {
		return
	}

	logger := log.G(ctx).WithField("addr", addr)
	logger.Warnf("trying to diagnose socket errors on %v", addr)

	out, err := d.runner.Run(ctx, "bash", "-c", lsofScript(addr.Port()))
	if len(out) > 0 {
		logger.Warnf("%s", out)
	}
	if err != nil {
		logger.Warnf("diagnostic command failed: %v", err)
	}
}

// Listen opens a TCP listener on addr. When the port turns out to be taken,
// the bind failure is explained in the log before the error is returned.
func (d *Diagnostics) Listen(ctx context.Context, addr netip.AddrPort) (net.Listener, error) {
	l, err := net.Listen("tcp", addr.String())
	if err == nil {
		return l, nil
	}
	if errors.Is(err, unix.EADDRINUSE) {
		d.ExplainBindFailure(ctx, addr)
	}
	return nil, errdefs.ErrNetwork(err, "unable to bind to %v", addr)
}

// lsofScript prints every listener on port together with its process
// ancestry. pstree is not installed everywhere, so the linux variant walks
// /proc itself.
func lsofScript(port uint16) string {
	if runtime.GOOS == "darwin" {
		return fmt.Sprintf(
			"lsof -n -i 'TCP:%d' +c0 -l -N -P -M -F 'pcfn' | grep -A2 p%d | sed 's/^f/ /;s/^[pn]/\\n/' | cut -c2-",
			port, os.Getpid())
	}
	return fmt.Sprintf(
		"export PATH=$PATH:/usr/sbin ; "+
			"lsof -n -i 'TCP:%[1]d' -sTCP:LISTEN ; "+
			"for pid in $(lsof -F p -n -i 'TCP:%[1]d' -sTCP:LISTEN | cut -f 2 -dp) ; do "+
			"while [ $pid -gt 1 ] ; do "+
			"ps h -fp $pid ; "+
			"stat=($(</proc/$pid/stat)) ; "+
			"pid=${stat[3]} ; "+
			"done ; done",
		port)
}

var (
	diagOnce    sync.Once
	defaultDiag *Diagnostics
)

func defaultDiagnostics() *Diagnostics {
	diagOnce.Do(func() {
		defaultDiag = NewDiagnostics()
	})
	return defaultDiag
}

// ExplainBindFailure runs the shared default Diagnostics on addr.
func ExplainBindFailure(ctx context.Context, addr netip.AddrPort) {
	defaultDiagnostics().ExplainBindFailure(ctx, addr)
}

// Listen opens a TCP listener on addr with the shared default Diagnostics
// attached to its failure path.
func Listen(ctx context.Context, addr netip.AddrPort) (net.Listener, error) {
	return defaultDiagnostics().Listen(ctx, addr)
}
