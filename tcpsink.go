package tcpsink

import (
	"context"
	"fmt"
	"hash"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/nathants/tcpsink/lib"
	uuid "github.com/satori/go.uuid"
)

const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 5001
)

type Config struct {
	Host string
	Port int
	// Timeout bounds the accept and each read. Zero waits forever.
	Timeout time.Duration
	// Checksum names a lib.NewChecksum algorithm, empty for none.
	Checksum string
}

type Result struct {
	Peer     string
	Bytes    int64
	Elapsed  time.Duration
	Checksum string
}

// Run listens on cfg.Host:cfg.Port, accepts exactly one connection, drains
// it to end of stream and reports the byte count on stdout. Both sockets are
// closed before Run returns, whatever the outcome.
func Run(ctx context.Context, cfg Config, stdout io.Writer) (Result, error) {
	var result Result
	var sum hash.Hash
	if cfg.Checksum != "" {
		var err error
		sum, err = lib.NewChecksum(cfg.Checksum)
		if err != nil {
			return result, err
		}
	}
	session := uuid.NewV4().String()
	li, err := lib.Listen(ctx, net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return result, err
	}
	defer func() {
		err := li.Close()
		if err != nil {
			lib.Logger.Printf("session %s: close listener: %s\n", session, err)
		}
	}()
	port := li.Addr().(*net.TCPAddr).Port
	_, err = fmt.Fprintf(stdout, "Listening on %s ...\n", net.JoinHostPort(cfg.Host, strconv.Itoa(port)))
	if err != nil {
		return result, err
	}
	lib.Logger.Printf("session %s: listening on port %d\n", session, port)

	conn, err := lib.AcceptOne(li, cfg.Timeout)
	if err != nil {
		return result, err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			lib.Logger.Printf("session %s: close conn: %s\n", session, err)
		}
	}()
	result.Peer = conn.RemoteAddr().String()
	_, err = fmt.Fprintf(stdout, "Connected by %s\n", result.Peer)
	if err != nil {
		return result, err
	}

	var r io.Reader = conn
	if cfg.Timeout > 0 {
		deadline := lib.Deadline(conn.SetReadDeadline, cfg.Timeout)
		deadline()
		r = lib.RWCallback{Rw: conn, Cb: deadline}
	}
	var w io.Writer
	if sum != nil {
		w = sum
	}
	start := time.Now()
	result.Bytes, err = lib.Drain(r, w)
	result.Elapsed = time.Since(start)
	if err != nil {
		return result, fmt.Errorf("drain %s after %d bytes: %w", result.Peer, result.Bytes, err)
	}
	if sum != nil {
		result.Checksum = lib.HexSum(sum)
	}
	_, err = fmt.Fprintf(stdout, "Done. Received bytes: %d\n", result.Bytes)
	if err != nil {
		return result, err
	}
	lib.Logger.Printf("session %s: %d bytes in %.3f s => %.2f Mbit/s\n", session, result.Bytes, result.Elapsed.Seconds(), lib.Mbps(result.Bytes, result.Elapsed))
	return result, nil
}
