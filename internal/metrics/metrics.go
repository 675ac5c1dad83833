// Package metrics collects per-run Prometheus metrics. A CLI run has no
// scrape endpoint, so the registry is written out in the node_exporter
// textfile format when a destination is configured.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/val3rkq/osmbounds/internal/osm"
)

type Provider struct {
	reg *prometheus.Registry

	ObjectsScanned  *prometheus.CounterVec
	Passes          prometheus.Counter
	ClosureObjects  *prometheus.GaugeVec
	DanglingRefs    prometheus.Gauge
	RecordsEmitted  prometheus.Counter
	BoundaryBuckets *prometheus.GaugeVec
	LastSuccess     prometheus.Gauge

	// ObjectsScanned children, indexed by osm.Type
	scanned [osm.TypeRelation + 1]prometheus.Counter
}

func New(version string) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "osmbounds_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version"},
	)
	if version == "" {
		version = "dev"
	}
	build.WithLabelValues(version).Set(1)

	p := &Provider{
		reg: reg,
		ObjectsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmbounds_objects_scanned_total",
			Help: "Objects delivered by the source across all passes.",
		}, []string{"type"}),
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "osmbounds_closure_passes_total",
			Help: "Full passes over the source made by the closure loader.",
		}),
		ClosureObjects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "osmbounds_closure_objects",
			Help: "Objects in the final result set.",
		}, []string{"type"}),
		DanglingRefs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "osmbounds_closure_dangling_refs",
			Help: "Referenced ids never found in the source.",
		}),
		RecordsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "osmbounds_records_emitted_total",
			Help: "JSON lines written by the record emitter.",
		}),
		BoundaryBuckets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "osmbounds_boundary_relations",
			Help: "Candidate relations per boundary tag value.",
		}, []string{"boundary"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "osmbounds_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
	}
	reg.MustRegister(build, p.ObjectsScanned, p.Passes, p.ClosureObjects,
		p.DanglingRefs, p.RecordsEmitted, p.BoundaryBuckets, p.LastSuccess)

	for _, t := range []osm.Type{osm.TypeNode, osm.TypeWay, osm.TypeRelation} {
		p.scanned[t] = p.ObjectsScanned.WithLabelValues(t.String())
	}
	return p
}

func (p *Provider) Registry() *prometheus.Registry { return p.reg }

// ObserveScanned is safe on a nil Provider, as are the other Observe helpers.
func (p *Provider) ObserveScanned(t osm.Type) {
	if p == nil {
		return
	}
	if int(t) >= len(p.scanned) || p.scanned[t] == nil {
		return
	}
	p.scanned[t].Inc()
}

func (p *Provider) ObservePass() {
	if p == nil {
		return
	}
	p.Passes.Inc()
}

func (p *Provider) ObserveClosure(rs *osm.ResultSet, dangling int) {
	if p == nil {
		return
	}
	counts := rs.CountByType()
	for _, t := range []osm.Type{osm.TypeNode, osm.TypeWay, osm.TypeRelation} {
		p.ClosureObjects.WithLabelValues(t.String()).Set(float64(counts[t]))
	}
	p.DanglingRefs.Set(float64(dangling))
}

func (p *Provider) ObserveEmitted(n int) {
	if p == nil {
		return
	}
	p.RecordsEmitted.Add(float64(n))
}

func (p *Provider) ObserveBucket(boundary string, count int) {
	if p == nil {
		return
	}
	p.BoundaryBuckets.WithLabelValues(boundary).Set(float64(count))
}

func (p *Provider) MarkSuccess() {
	if p == nil {
		return
	}
	p.LastSuccess.SetToCurrentTime()
}

// WriteTextfile writes the registry for the node_exporter textfile
// collector. An empty path is a no-op.
func (p *Provider) WriteTextfile(path string) error {
	if p == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, p.reg)
}
