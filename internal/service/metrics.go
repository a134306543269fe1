package service

import (
	"bitwise74/file-catalog/pkg/apperr"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_operations_total",
			Help: "Catalog operations by name and result",
		},
		[]string{"operation", "result"},
	)

	uploadedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_uploaded_bytes_total",
		Help: "Bytes written to the blob store by successful uploads",
	})

	duplicatesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_duplicates_rejected_total",
			Help: "Uploads and renames rejected by per user uniqueness checks",
		},
		[]string{"reason"},
	)

	jobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_jobs_running",
		Help: "Jobs currently queued or executing in the worker pool",
	})

	cleanupDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cleanup_deleted_blobs_total",
		Help: "Orphaned blobs removed by the cleanup job",
	})
)

func observe(op string, err error) {
	result := "success"
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindValidation:
			result = "invalid"
		case apperr.KindConflict:
			result = "conflict"
		case apperr.KindNotFound:
			result = "not_found"
		case apperr.KindForbidden:
			result = "forbidden"
		default:
			result = "error"
		}
	}

	operationsTotal.WithLabelValues(op, result).Inc()
}
