package health

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-faster/jx"
)

// LiveEndpoint serves /livez: 200 {"status":"ok"} when every liveness probe
// is healthy, otherwise 503 with the failing probes under "checks".
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failures(h.snapshot(true)))
}

// ReadyEndpoint serves /readyz. It also fails while the manual readiness
// flag is unset, reporting it as the "_readiness" check.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.snapshot(false))
	if !h.ready.Load() {
		failed["_readiness"] = "service is not ready"
	}
	writeStatus(w, failed)
}

// Info is the static part of the service health document.
type Info struct {
	Service     string
	Version     string
	BuildTime   time.Time
	Database    string
	DeployedVia string
	// Check names the readiness probe that backs db_status.
	Check string
}

// InfoEndpoint returns a handler for the service health document:
//
//	{"status":"healthy","service":...,"version":...,"build_time":...,
//	 "database":...,"db_status":"connected"|"disconnected","deployed_via":...}
//
// db_status is connected only if the probe named info.Check has run and its
// last run passed. The status is always 200.
func (h *Health) InfoEndpoint(info Info) http.HandlerFunc {
	buildTime := info.BuildTime.UTC().Format(time.RFC3339)
	return func(w http.ResponseWriter, _ *http.Request) {
		dbStatus := "disconnected"
		if res, ok := h.Readiness(info.Check); ok && res.Ran && res.Err == nil {
			dbStatus = "connected"
		}

		e := jx.GetEncoder()
		defer jx.PutEncoder(e)

		e.ObjStart()
		e.FieldStart("status")
		e.Str("healthy")
		e.FieldStart("service")
		e.Str(info.Service)
		e.FieldStart("version")
		e.Str(info.Version)
		e.FieldStart("build_time")
		e.Str(buildTime)
		e.FieldStart("database")
		e.Str(info.Database)
		e.FieldStart("db_status")
		e.Str(dbStatus)
		e.FieldStart("deployed_via")
		e.Str(info.DeployedVia)
		e.ObjEnd()

		write(w, http.StatusOK, e.Bytes())
	}
}

func writeStatus(w http.ResponseWriter, failed map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := http.StatusOK
	e.ObjStart()
	e.FieldStart("status")
	if len(failed) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		names := make([]string, 0, len(failed))
		for name := range failed {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			e.FieldStart(name)
			e.Str(failed[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	write(w, status, e.Bytes())
}

func write(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already sent; a failed write means the client left.
	_, _ = w.Write(body)
}
