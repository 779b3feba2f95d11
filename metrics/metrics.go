package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var HttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pack_http_requests_total",
}, []string{"action", "method"})
var HttpResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pack_http_responses_total",
}, []string{"action", "method", "statusCode"})
var HttpResponseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name: "pack_http_response_time_seconds",
}, []string{"action", "method"})
var BundlesUploaded = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pack_bundles_uploaded_total",
}, []string{"thumbnail"})
var UploadRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pack_upload_rejections_total",
}, []string{"reason"})
var UploadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "pack_uploaded_bytes_total",
})
var ManifestRegenerations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pack_manifest_regenerations_total",
}, []string{"outcome"})
var ManifestEntries = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "pack_manifest_entries",
})
var ThumbnailsNormalized = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pack_thumbnails_normalized_total",
}, []string{"method"})
var S3Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "pack_s3_operations_total",
}, []string{"operation", "outcome"})

func init() {
	prometheus.MustRegister(HttpRequests)
	prometheus.MustRegister(HttpResponses)
	prometheus.MustRegister(HttpResponseTime)
	prometheus.MustRegister(BundlesUploaded)
	prometheus.MustRegister(UploadRejections)
	prometheus.MustRegister(UploadedBytes)
	prometheus.MustRegister(ManifestRegenerations)
	prometheus.MustRegister(ManifestEntries)
	prometheus.MustRegister(ThumbnailsNormalized)
	prometheus.MustRegister(S3Operations)
}
