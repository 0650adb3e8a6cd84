package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/nathants/tcpsink"
	"github.com/nathants/tcpsink/lib"
)

type args struct {
	Addr     string        `arg:"positional,required" help:"host of the listener"`
	Port     int           `arg:"positional" help:"port of the listener"`
	Bytes    int64         `arg:"-n,--bytes" help:"dummy bytes to send"`
	Stdin    bool          `arg:"--stdin" help:"send stdin instead of dummy bytes"`
	Timeout  time.Duration `arg:"-t,--timeout" help:"give up dialing or writing after this long"`
	Checksum string        `arg:"-c,--checksum" help:"print a checksum of the sent bytes to stderr: xxh or blake2s"`
	NoWait   bool          `arg:"--no-wait" help:"exit right after the half close instead of waiting for the peer to close"`
}

func (args) Description() string {
	return "send bytes to a tcpsink, half close, print throughput\n"
}

func main() {
	a := args{
		Port:    tcpsink.DefaultPort,
		Bytes:   tcpsink.DefaultSendBytes,
		Timeout: tcpsink.DefaultTimeout,
	}
	arg.MustParse(&a)
	lib.Assert(a.Bytes >= 0, "--bytes must not be negative: %d", a.Bytes)
	var src io.Reader
	if a.Stdin {
		src = os.Stdin
	} else {
		src = tcpsink.Pattern(a.Bytes)
	}
	cfg := tcpsink.SendConfig{
		Addr:     net.JoinHostPort(a.Addr, strconv.Itoa(a.Port)),
		Timeout:  a.Timeout,
		Checksum: a.Checksum,
		Wait:     !a.NoWait,
	}
	result := lib.Panic2(tcpsink.Send(cfg, src, os.Stdout)).(tcpsink.SendResult)
	if result.Checksum != "" {
		lib.Panic2(fmt.Fprintln(os.Stderr, result.Checksum))
	}
}
