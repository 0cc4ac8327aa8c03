package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	operationSearch  = "search"
	operationSuggest = "suggest"
)

var (
	searchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of served search and suggest requests by source",
		},
		[]string{"operation", "source"},
	)

	primaryDemotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_primary_demotions_total",
			Help: "Total number of primary engine failures that fell back to the relational store",
		},
		[]string{"operation"},
	)

	fallbackDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_fallback_duration_seconds",
			Help:    "Duration of requests served from the relational store",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)
