package tcpsink

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPattern(t *testing.T) {
	for _, n := range []int64{0, 1, SendChunkSize, DefaultSendBytes + 3} {
		data, err := io.ReadAll(Pattern(n))
		require.NoError(t, err)
		if int64(len(data)) != n {
			t.Errorf("got: %d, want: %d", len(data), n)
		}
		assert.True(t, bytes.Equal(bytes.Repeat([]byte{Fill}, int(n)), data))
	}
}

func TestDialGivesUp(t *testing.T) {
	port, err := freeport.GetFreePort()
	require.NoError(t, err)
	start := time.Now()
	_, err = Dial(fmt.Sprintf("127.0.0.1:%d", port), 100*time.Millisecond)
	require.Error(t, err)
	assert.Less(t, int64(time.Since(start)), int64(5*time.Second))
}

func TestSendWithoutWait(t *testing.T) {
	r := startRun(t, Config{})
	var stdout bytes.Buffer
	sent, err := Send(SendConfig{Addr: r.addr}, Pattern(12345), &stdout)
	require.NoError(t, err)
	require.NoError(t, r.wait(t))
	assert.Equal(t, int64(12345), sent.Bytes)
	assert.Equal(t, sent.Bytes, r.result.Bytes)
	assert.Empty(t, sent.Checksum)
}

func TestDialRetryStopsAtTimeout(t *testing.T) {
	calls := 0
	start := time.Now()
	_, err := dialRetry(func(deadline time.Time) (net.Conn, error) {
		calls++
		time.Sleep(time.Until(deadline))
		return nil, os.ErrDeadlineExceeded
	}, 200*time.Millisecond)
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)
	assert.Equal(t, 1, calls)
	assert.Less(t, int64(time.Since(start)), int64(time.Second))
}

func TestDialRetryRetries(t *testing.T) {
	calls := 0
	conn, err := dialRetry(func(deadline time.Time) (net.Conn, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		a, b := net.Pipe()
		_ = b.Close()
		return a, nil
	}, time.Second)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, 3, calls)
}

type writeRecorder struct {
	n   int64
	max int
}

func (w *writeRecorder) Write(p []byte) (int, error) {
	if len(p) > w.max {
		w.max = len(p)
	}
	w.n += int64(len(p))
	return len(p), nil
}

func TestCopyChunks(t *testing.T) {
	type test struct {
		name string
		src  io.Reader
	}
	tests := []test{
		{"strings reader", strings.NewReader(strings.Repeat("x", 100000))},
		{"bytes reader", bytes.NewReader(make([]byte, 100000))},
		{"pattern", Pattern(100000)},
	}
	for _, test := range tests {
		w := &writeRecorder{}
		n, err := copyChunks(w, test.src)
		require.NoError(t, err)
		assert.Equal(t, int64(100000), n, test.name)
		assert.Equal(t, int64(100000), w.n, test.name)
		assert.Equal(t, SendChunkSize, w.max, test.name)
	}
}
