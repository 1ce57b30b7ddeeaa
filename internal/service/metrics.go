package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Committed cart mutations by operation",
		},
		[]string{"operation"},
	)

	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Carts converted to placed orders by payment type",
		},
		[]string{"payment_type"},
	)

	versionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_version_conflict_retries_total",
			Help: "Optimistic-concurrency conflicts that triggered a retry",
		},
		[]string{"operation"},
	)

	fulfillmentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_fulfillment_transitions_total",
			Help: "Order status transitions by source and target status",
		},
		[]string{"from", "to"},
	)
)
