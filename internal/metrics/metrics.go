// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Completions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "learntools",
		Name:      "completions_total",
		Help:      "Exercises completed, by tool.",
	}, []string{"tool"})
	ConfigErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "learntools",
		Name:      "config_errors_total",
		Help:      "Rejected exercise loads, by tool and error kind.",
	}, []string{"tool", "kind"})
	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "learntools",
		Name:      "storage_errors_total",
		Help:      "Swallowed best-effort storage failures, by store.",
	}, []string{"store"})
	NotebookWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "learntools",
		Name:      "notebook_writes_total",
		Help:      "Durable notebook writes, by table.",
	}, []string{"table"})
	NotebookSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "learntools",
		Name:      "notebook_sessions_open",
		Help:      "Notebook sessions currently held in memory.",
	})
	RegistryReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "learntools",
		Name:      "registry_reloads_total",
		Help:      "Tool directory reloads, by result.",
	}, []string{"result"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
