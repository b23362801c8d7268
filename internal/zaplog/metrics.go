package zaplog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "loanmarket_operations_total",
		Help: "Marketplace operations by name and outcome.",
	},
	[]string{"operation", "status"},
)
