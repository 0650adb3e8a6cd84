package lib

import (
	"fmt"
	"hash"
	"io"
	"log"
	"time"

	"github.com/cespare/xxhash"
	"golang.org/x/crypto/blake2s"
)

// Logger carries diagnostics only, stdout is reserved for the report lines.
// Commands point it at stderr when asked to be verbose.
var Logger = log.New(io.Discard, "", log.LstdFlags)

func Panic1(e error) {
	if e != nil {
		panic(e)
	}
}

func Panic2(x interface{}, e error) interface{} {
	if e != nil {
		panic(e)
	}
	return x
}

func Assert(cond bool, format string, a ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, a...))
	}
}

// RWCallback calls Cb after every Read, Write and Close on Rw.
type RWCallback struct {
	Rw io.ReadWriteCloser
	Cb func()
}

func (rwc RWCallback) Read(p []byte) (n int, err error) {
	defer rwc.Cb()
	return rwc.Rw.Read(p)
}

func (rwc RWCallback) Write(p []byte) (n int, err error) {
	defer rwc.Cb()
	return rwc.Rw.Write(p)
}

func (rwc RWCallback) Close() error {
	defer rwc.Cb()
	return rwc.Rw.Close()
}

var Checksums = []string{"xxh", "blake2s"}

func NewChecksum(name string) (hash.Hash, error) {
	switch name {
	case "xxh":
		return xxhash.New(), nil
	case "blake2s":
		return blake2s.New256(nil)
	default:
		return nil, fmt.Errorf("unknown checksum %q, want one of %v", name, Checksums)
	}
}

func HexSum(h hash.Hash) string {
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Mbps is megabits per second, 0 when no time has passed.
func Mbps(n int64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(n) * 8 / (secs * 1000 * 1000)
}
