package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ExtractionsTotal       *prometheus.CounterVec   // outcome: completed, failed, existing, duplicate
	ExtractionsInFlight    prometheus.Gauge
	StageDuration          *prometheus.HistogramVec // stage, outcome
	LLMRetriesTotal        prometheus.Counter
	TranscriptionsTotal    *prometheus.CounterVec // result: success or error kind
	ContentFetchesTotal    *prometheus.CounterVec // source, result
	ExtractionQualityTotal *prometheus.CounterVec // method, quality
)

var once sync.Once

// Init registers every collector with the default registry. Safe to call
// more than once.
func Init() {
	once.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_extractions_total",
			Help: "Extraction requests by outcome.",
		},
		[]string{"outcome"},
	)

	ExtractionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipe_extractions_in_flight",
			Help: "Pipelines currently running in this instance.",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipe_extraction_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		},
		[]string{"stage", "outcome"},
	)

	LLMRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_llm_retries_total",
			Help: "Repair retries issued after a component shape error.",
		},
	)

	TranscriptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_transcriptions_total",
			Help: "Transcription attempts by result.",
		},
		[]string{"result"},
	)

	ContentFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_content_fetches_total",
			Help: "Content extraction attempts by source and result.",
		},
		[]string{"source", "result"},
	)

	ExtractionQualityTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_extraction_quality_total",
			Help: "Saved recipes by extraction method and quality.",
		},
		[]string{"method", "quality"},
	)
}
