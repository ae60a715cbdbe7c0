package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/tunepull/tunepull/pkg/models"
	"github.com/tunepull/tunepull/pkg/store"
)

// Exporter serves Prometheus-compatible metrics at /metrics. It writes a
// snapshot of store state as gauges and appends everything registered in
// the default Prometheus registry.
type Exporter struct {
	store     store.Store
	startTime time.Time
}

// NewExporter creates an exporter reading job state from s.
func NewExporter(s store.Store) *Exporter {
	return &Exporter{
		store:     s,
		startTime: time.Now(),
	}
}

var allStatuses = []models.JobStatus{
	models.JobStatusQueued,
	models.JobStatusGenerating,
	models.JobStatusDownloading,
	models.JobStatusCompleted,
	models.JobStatusCompletedWithErrors,
	models.JobStatusFailed,
}

func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	jobs, err := e.store.GetAllJobs()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error collecting job metrics: %v", err), http.StatusInternalServerError)
		return
	}

	jobsByStatus := make(map[models.JobStatus]int)
	active := 0
	for _, job := range jobs {
		jobsByStatus[job.Status]++
		if !models.IsTerminalStatus(job.Status) {
			active++
		}
	}

	fmt.Fprintf(w, "# HELP tunepull_jobs Current number of jobs by status\n")
	fmt.Fprintf(w, "# TYPE tunepull_jobs gauge\n")
	// Always export all statuses (even if count is 0)
	for _, status := range allStatuses {
		fmt.Fprintf(w, "tunepull_jobs{status=\"%s\"} %d\n", status, jobsByStatus[status])
	}

	fmt.Fprintf(w, "\n# HELP tunepull_active_jobs Number of jobs not yet in a terminal state\n")
	fmt.Fprintf(w, "# TYPE tunepull_active_jobs gauge\n")
	fmt.Fprintf(w, "tunepull_active_jobs %d\n", active)

	fmt.Fprintf(w, "\n# HELP tunepull_uptime_seconds Service uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE tunepull_uptime_seconds gauge\n")
	fmt.Fprintf(w, "tunepull_uptime_seconds %.0f\n", time.Since(e.startTime).Seconds())

	fmt.Fprintf(w, "\n")

	// Append metrics from the default Prometheus registry.
	metricFamilies, err := promclient.DefaultGatherer.Gather()
	if err != nil {
		fmt.Fprintf(w, "# Error gathering Prometheus metrics: %v\n", err)
		return
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metricFamilies {
		if err := encoder.Encode(mf); err != nil {
			fmt.Fprintf(w, "# Error encoding metric %s: %v\n", mf.GetName(), err)
		}
	}
	w.Write(buf.Bytes())
}
