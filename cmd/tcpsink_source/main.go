package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/nathants/tcpsink"
	"github.com/nathants/tcpsink/lib"
)

type args struct {
	Host    string `arg:"--host" help:"address to listen on"`
	Port    int    `arg:"-p,--port" help:"port to listen on"`
	Verbose bool   `arg:"-v,--verbose" help:"log diagnostics to stderr"`
}

func (args) Description() string {
	return "serve GET /<n>[B|KB|MB|GB].bin as that many dummy bytes, for tcpsink_fetch\n"
}

func main() {
	a := args{Host: tcpsink.DefaultHost, Port: tcpsink.DefaultFetchPort}
	arg.MustParse(&a)
	if a.Verbose {
		lib.Logger.SetOutput(os.Stderr)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	lib.Panic1(tcpsink.Serve(ctx, tcpsink.SourceConfig{Host: a.Host, Port: a.Port}, os.Stdout))
}
