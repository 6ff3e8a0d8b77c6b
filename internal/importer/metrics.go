package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gnotes_import_files_total",
		Help: "Imported files by outcome.",
	}, []string{"outcome"})

	importBatchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gnotes_import_batch_seconds",
		Help:    "Time spent importing one batch.",
		Buckets: prometheus.DefBuckets,
	})
)
