package lib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const ChunkSize = 64 * 1024

// Listen binds addr with SO_REUSEADDR set before bind, so a restarted
// process can take the port back while old connections sit in TIME_WAIT.
func Listen(ctx context.Context, addr string) (*net.TCPListener, error) {
	lc := net.ListenConfig{
		Control: func(network string, address string, rc syscall.RawConn) error {
			var err error
			cerr := rc.Control(func(fd uintptr) {
				err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if cerr != nil {
				return cerr
			}
			return err
		},
	}
	li, err := lc.Listen(ctx, Network(addr), addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return li.(*net.TCPListener), nil
}

// Network is tcp4 for IPv4 literal hosts, so 0.0.0.0 stays off the IPv6
// stack, and tcp for everything else.
func Network(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "tcp"
	}
	ip := net.ParseIP(host)
	if ip != nil && ip.To4() != nil && !strings.Contains(host, ":") {
		return "tcp4"
	}
	return "tcp"
}

// Deadline returns a callback that pushes a deadline timeout into the
// future through set, usually a conn's SetReadDeadline or SetDeadline.
func Deadline(set func(time.Time) error, timeout time.Duration) func() {
	return func() {
		err := set(time.Now().Add(timeout))
		if err != nil {
			Logger.Printf("set deadline: %s\n", err)
		}
	}
}

// AcceptOne waits for a single connection. A zero timeout waits forever.
func AcceptOne(li *net.TCPListener, timeout time.Duration) (*net.TCPConn, error) {
	if timeout > 0 {
		err := li.SetDeadline(time.Now().Add(timeout))
		if err != nil {
			return nil, fmt.Errorf("set accept deadline: %w", err)
		}
	}
	conn, err := li.AcceptTCP()
	if err != nil {
		return nil, fmt.Errorf("accept: %w", err)
	}
	return conn, nil
}

// Drain reads r in chunks of at most ChunkSize until end of stream and
// returns the number of bytes read. Every chunk is also written to w when w
// is not nil. Only io.EOF ends the loop cleanly, any other error is returned
// along with the count so far.
func Drain(r io.Reader, w io.Writer) (int64, error) {
	buf := make([]byte, ChunkSize)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			if w != nil {
				_, werr := w.Write(buf[:n])
				if werr != nil {
					return total, fmt.Errorf("write: %w", werr)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("read: %w", err)
		}
	}
}
