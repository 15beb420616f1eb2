package dataset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opCreate   = "create"
	opDelete   = "delete"
	opUndelete = "undelete"
	opPurge    = "purge"
	opDenied   = "purge_denied"
)

var operations = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "dataset_operations_total",
		Help: "Number of dataset mutations, differentiated by operation.",
	},
	[]string{"operation"},
)
