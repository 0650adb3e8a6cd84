package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/nathants/tcpsink"
	"github.com/nathants/tcpsink/lib"
)

type args struct {
	Host     string        `arg:"--host" help:"address to listen on"`
	Port     int           `arg:"-p,--port" help:"port to listen on"`
	Timeout  time.Duration `arg:"-t,--timeout" help:"fail if accept or any read stalls this long, 0 waits forever"`
	Checksum string        `arg:"-c,--checksum" help:"print a checksum of the received bytes to stderr: xxh or blake2s"`
	Verbose  bool          `arg:"-v,--verbose" help:"log diagnostics to stderr"`
}

func (args) Description() string {
	return "accept one tcp connection, read it to the end, print how many bytes arrived\n"
}

func main() {
	a := args{Host: tcpsink.DefaultHost, Port: tcpsink.DefaultPort}
	arg.MustParse(&a)
	if a.Verbose {
		lib.Logger.SetOutput(os.Stderr)
	}
	cfg := tcpsink.Config{
		Host:     a.Host,
		Port:     a.Port,
		Timeout:  a.Timeout,
		Checksum: a.Checksum,
	}
	result := lib.Panic2(tcpsink.Run(context.Background(), cfg, os.Stdout)).(tcpsink.Result)
	if result.Checksum != "" {
		lib.Panic2(fmt.Fprintln(os.Stderr, result.Checksum))
	}
}
