package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	translations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdftranslate",
			Name:      "translations_total",
			Help:      "Total translation requests by provider and result",
		},
		[]string{"provider", "result"},
	)

	providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdftranslate",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of provider requests by provider",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	extractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdftranslate",
			Name:      "extraction_runs_total",
			Help:      "Extraction runs by strategy and result",
		},
		[]string{"strategy", "result"},
	)

	extractionPages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdftranslate",
			Name:      "extraction_pages",
			Help:      "Page counts of successfully extracted documents",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		},
	)

	quotaRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdftranslate",
			Name:      "quota_rejections_total",
			Help:      "Translation requests rejected by the daily quota",
		},
	)

	uploadRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdftranslate",
			Name:      "upload_rejections_total",
			Help:      "Rejected uploads by reason (mime, size, unreadable)",
		},
		[]string{"reason"},
	)

	shareClicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdftranslate",
			Name:      "share_clicks_total",
			Help:      "Recorded referral clicks",
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(translations, providerLatency, extractions, extractionPages, quotaRejections, uploadRejections, shareClicks)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveTranslation(provider, result string, dur time.Duration) {
	translations.WithLabelValues(provider, result).Inc()
	providerLatency.WithLabelValues(provider).Observe(dur.Seconds())
}

func ObserveExtraction(strategy, result string) {
	extractions.WithLabelValues(strategy, result).Inc()
}

func ObservePages(n int) { extractionPages.Observe(float64(n)) }

func IncQuotaRejection() { quotaRejections.Inc() }

func IncUploadRejection(reason string) { uploadRejections.WithLabelValues(reason).Inc() }

func IncShareClick() { shareClicks.Inc() }
