package tcpsink

import (
	"fmt"
	"hash"
	"io"
	"net"
	"time"

	"github.com/avast/retry-go"
	"github.com/nathants/tcpsink/lib"
)

const (
	SendChunkSize    = 32 * 1024
	DefaultSendBytes = 8 * 1024 * 1024
	DefaultTimeout   = 5 * time.Second
	Fill             = 0xa5
	dialDelay        = 10 * time.Millisecond
)

type SendConfig struct {
	Addr string
	// Timeout bounds dialing and each write. Zero means DefaultTimeout.
	Timeout  time.Duration
	Checksum string
	// Wait for the peer to close after our half close, so Elapsed
	// includes delivery and not just the local socket buffer.
	Wait bool
}

type SendResult struct {
	Bytes    int64
	Elapsed  time.Duration
	Checksum string
}

type fillReader struct{}

func (fillReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = Fill
	}
	return len(p), nil
}

// Pattern yields n dummy bytes.
func Pattern(n int64) io.Reader {
	return io.LimitReader(fillReader{}, n)
}

// Dial retries until the listener shows up. The whole call, retries
// included, gives up once timeout has passed.
func Dial(addr string, timeout time.Duration) (*net.TCPConn, error) {
	conn, err := dialRetry(func(deadline time.Time) (net.Conn, error) {
		d := net.Dialer{Deadline: deadline}
		return d.Dial("tcp", addr)
	}, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn.(*net.TCPConn), nil
}

func dialRetry(dial func(deadline time.Time) (net.Conn, error), timeout time.Duration) (net.Conn, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	attempts := uint(timeout / dialDelay)
	if attempts == 0 {
		attempts = 1
	}
	var conn net.Conn
	err := retry.Do(
		func() error {
			var err error
			conn, err = dial(deadline)
			return err
		},
		retry.Attempts(attempts),
		retry.Delay(dialDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return time.Now().Add(dialDelay).Before(deadline)
		}),
	)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// copyChunks writes src to dst in writes of at most SendChunkSize. Both
// sides are wrapped so neither WriteTo nor ReadFrom can take over.
func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	return io.CopyBuffer(struct{ io.Writer }{dst}, struct{ io.Reader }{src}, make([]byte, SendChunkSize))
}

// Send streams src to cfg.Addr, half closes, and reports throughput on
// stdout.
func Send(cfg SendConfig, src io.Reader, stdout io.Writer) (SendResult, error) {
	var result SendResult
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var sum hash.Hash
	if cfg.Checksum != "" {
		var err error
		sum, err = lib.NewChecksum(cfg.Checksum)
		if err != nil {
			return result, err
		}
		src = io.TeeReader(src, sum)
	}
	conn, err := Dial(cfg.Addr, timeout)
	if err != nil {
		return result, err
	}
	defer func() { _ = conn.Close() }()
	deadline := lib.Deadline(conn.SetDeadline, timeout)
	deadline()
	rwc := lib.RWCallback{Rw: conn, Cb: deadline}
	start := time.Now()
	result.Bytes, err = copyChunks(rwc, src)
	if err != nil {
		return result, fmt.Errorf("send to %s after %d bytes: %w", cfg.Addr, result.Bytes, err)
	}
	err = conn.CloseWrite()
	if err != nil {
		return result, fmt.Errorf("close write: %w", err)
	}
	if cfg.Wait {
		_, err = io.Copy(io.Discard, rwc)
		if err != nil {
			return result, fmt.Errorf("wait for close: %w", err)
		}
	}
	result.Elapsed = time.Since(start)
	if sum != nil {
		result.Checksum = lib.HexSum(sum)
	}
	_, err = fmt.Fprintf(stdout, "Upload total: %d bytes in %.3f s  => %.2f Mbit/s\n", result.Bytes, result.Elapsed.Seconds(), lib.Mbps(result.Bytes, result.Elapsed))
	if err != nil {
		return result, err
	}
	return result, nil
}
