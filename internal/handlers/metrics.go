package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var assetOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "assetd_asset_operations_total",
	Help: "Completed asset mutations by operation.",
}, []string{"op"})
