package tcpsink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nathants/tcpsink/lib"
)

const (
	DefaultFetchPort = 8080
	DefaultFetchPath = "/1MB.bin"
)

var ErrNoHeader = errors.New("header not found")

type FetchConfig struct {
	Addr string
	Path string
	// Limit caps the body bytes counted, 0 reads to end of stream.
	Limit int64
	// Timeout bounds dialing and each read. Zero means DefaultTimeout.
	Timeout time.Duration
}

type FetchResult struct {
	Status  int
	Bytes   int64
	Elapsed time.Duration
}

// Fetch issues a plain HTTP/1.1 GET over a raw tcp connection and times
// only the body, starting at the first byte after the blank line.
func Fetch(cfg FetchConfig, stdout io.Writer) (FetchResult, error) {
	var result FetchResult
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	path := cfg.Path
	if path == "" {
		path = DefaultFetchPath
	}
	if !strings.HasPrefix(path, "/") {
		return result, fmt.Errorf("path must start with /: %s", path)
	}
	host, _, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return result, err
	}
	conn, err := Dial(cfg.Addr, timeout)
	if err != nil {
		return result, err
	}
	defer func() { _ = conn.Close() }()
	deadline := lib.Deadline(conn.SetDeadline, timeout)
	deadline()
	rwc := lib.RWCallback{Rw: conn, Cb: deadline}
	_, err = fmt.Fprintf(rwc, "GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\nUser-Agent: tcpsink-fetch\r\n\r\n", path, host)
	if err != nil {
		return result, fmt.Errorf("write request: %w", err)
	}
	br := bufio.NewReaderSize(rwc, lib.ChunkSize)
	result.Status, err = readHeader(br)
	if err != nil {
		return result, err
	}
	if result.Status < 200 || result.Status > 299 {
		return result, fmt.Errorf("%d %s", result.Status, path)
	}
	var body io.Reader = br
	if cfg.Limit > 0 {
		body = io.LimitReader(br, cfg.Limit)
	}
	start := time.Now()
	result.Bytes, err = lib.Drain(body, nil)
	result.Elapsed = time.Since(start)
	if err != nil {
		return result, fmt.Errorf("fetch %s after %d bytes: %w", path, result.Bytes, err)
	}
	_, err = fmt.Fprintf(stdout, "Download BODY: %d bytes in %.3f s  => %.2f Mbit/s\n", result.Bytes, result.Elapsed.Seconds(), lib.Mbps(result.Bytes, result.Elapsed))
	if err != nil {
		return result, err
	}
	return result, nil
}

// readHeader consumes the status line and headers and returns the status
// code. The reader is left at the first body byte.
func readHeader(br *bufio.Reader) (int, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNoHeader, err)
	}
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, fmt.Errorf("%w: bad status line %q", ErrNoHeader, line)
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("%w: bad status %q", ErrNoHeader, fields[1])
	}
	for {
		line, err = br.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrNoHeader, err)
		}
		if line == "\r\n" || line == "\n" {
			return status, nil
		}
	}
}
