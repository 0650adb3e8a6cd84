package tcpsink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/nathants/tcpsink/lib"
)

type SourceConfig struct {
	Host string
	Port int
}

var units = []struct {
	suffix string
	size   int64
}{
	{"GB", 1024 * 1024 * 1024},
	{"MB", 1024 * 1024},
	{"KB", 1024},
	{"B", 1},
}

// ParseSize reads names like 1MB.bin, 512KB.bin or 100B.bin.
func ParseSize(name string) (int64, error) {
	if !strings.HasSuffix(name, ".bin") {
		return 0, fmt.Errorf("want NUMBER[B|KB|MB|GB].bin, got: %s", name)
	}
	s := strings.TrimSuffix(name, ".bin")
	mult := int64(1)
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSuffix(s, u.suffix)
			mult = u.size
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 || n > math.MaxInt64/mult {
		return 0, fmt.Errorf("want NUMBER[B|KB|MB|GB].bin, got: %s", name)
	}
	return n * mult, nil
}

func sourceBin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	size, err := ParseSize(ps.ByName("name"))
	if err != nil {
		w.WriteHeader(404)
		_, _ = fmt.Fprintf(w, "%s\n", err)
		return
	}
	// content length keeps the body unchunked, so fetch counts only payload
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	n, err := io.Copy(w, Pattern(size))
	if err != nil {
		lib.Logger.Printf("source %s: %s after %d bytes\n", r.RemoteAddr, err, n)
	}
}

func sourcePanic(w http.ResponseWriter, r *http.Request, err interface{}) {
	w.WriteHeader(500)
	_, _ = fmt.Fprintf(w, "%s\n", err)
}

// NewSource routes GET /<size>.bin to that many dummy bytes.
func NewSource() http.Handler {
	router := httprouter.New()
	router.GET("/:name", sourceBin)
	router.PanicHandler = sourcePanic
	return router
}

// Serve runs the download source until ctx is done.
func Serve(ctx context.Context, cfg SourceConfig, stdout io.Writer) error {
	li, err := lib.Listen(ctx, net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return err
	}
	port := li.Addr().(*net.TCPAddr).Port
	_, err = fmt.Fprintf(stdout, "Serving on %s ...\n", net.JoinHostPort(cfg.Host, strconv.Itoa(port)))
	if err != nil {
		_ = li.Close()
		return err
	}
	srv := &http.Server{Handler: NewSource()}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = srv.Close()
		case <-done:
		}
	}()
	err = srv.Serve(li)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
