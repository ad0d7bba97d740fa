package httpmiddleware

import (
	"net/http"
	"strings"

	"github.com/klauspost/pgzip"
)

// Gzip compresses response bodies for clients that accept gzip. Level 0
// selects pgzip.DefaultCompression. Headers are held back until the first
// body write, so responses without a body are sent uncompressed.
func Gzip(level int) Middleware {
	if level == 0 {
		level = pgzip.DefaultCompression
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept-Encoding")
			if r.Method == http.MethodHead || !acceptsGzip(r) {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipWriter{ResponseWriter: w, level: level, status: http.StatusOK}
			defer gw.close()
			next.ServeHTTP(gw, r)
		})
	}
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(enc, "gzip") {
			return true
		}
	}
	return false
}

type gzipWriter struct {
	http.ResponseWriter
	level   int
	status  int
	gz      *pgzip.Writer
	flushed bool
}

func (w *gzipWriter) WriteHeader(code int) {
	if !w.flushed {
		w.status = code
	}
}

func (w *gzipWriter) Write(b []byte) (int, error) {
	if !w.flushed {
		if err := w.start(); err != nil {
			return 0, err
		}
	}
	if w.gz == nil {
		return w.ResponseWriter.Write(b)
	}
	return w.gz.Write(b)
}

// start sends the held-back status line, switching to gzip when the status
// allows a body.
func (w *gzipWriter) start() error {
	w.flushed = true
	if bodyAllowed(w.status) && w.Header().Get("Content-Encoding") == "" {
		gz, err := pgzip.NewWriterLevel(w.ResponseWriter, w.level)
		if err != nil {
			return err
		}
		w.gz = gz
		w.Header().Del("Content-Length")
		w.Header().Set("Content-Encoding", "gzip")
	}
	w.ResponseWriter.WriteHeader(w.status)
	return nil
}

func (w *gzipWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *gzipWriter) close() {
	if !w.flushed {
		w.flushed = true
		w.ResponseWriter.WriteHeader(w.status)
		return
	}
	if w.gz != nil {
		_ = w.gz.Close()
	}
}

func bodyAllowed(status int) bool {
	return status >= http.StatusOK && status != http.StatusNoContent && status != http.StatusNotModified
}
