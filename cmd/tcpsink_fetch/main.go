package main

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/nathants/tcpsink"
	"github.com/nathants/tcpsink/lib"
)

type args struct {
	Addr    string        `arg:"positional,required" help:"host serving the file"`
	Port    int           `arg:"positional" help:"port serving the file"`
	Path    string        `arg:"--path" help:"path to GET, must start with /"`
	Limit   int64         `arg:"-l,--limit" help:"stop after this many body bytes, 0 reads the whole body"`
	Timeout time.Duration `arg:"-t,--timeout" help:"give up dialing or reading after this long"`
}

func (args) Description() string {
	return "GET a file over plain http and print the throughput of the body alone\n"
}

func main() {
	a := args{
		Port:    tcpsink.DefaultFetchPort,
		Path:    tcpsink.DefaultFetchPath,
		Timeout: tcpsink.DefaultTimeout,
	}
	arg.MustParse(&a)
	lib.Assert(a.Limit >= 0, "--limit must not be negative: %d", a.Limit)
	cfg := tcpsink.FetchConfig{
		Addr:    net.JoinHostPort(a.Addr, strconv.Itoa(a.Port)),
		Path:    a.Path,
		Limit:   a.Limit,
		Timeout: a.Timeout,
	}
	_ = lib.Panic2(tcpsink.Fetch(cfg, os.Stdout)).(tcpsink.FetchResult)
}
