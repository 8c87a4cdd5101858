// Package metrics holds the wallet's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LedgerEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_ledger_entries_total",
			Help: "Committed ledger entries by transaction type",
		},
		[]string{"type"},
	)
	Withdrawals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_withdrawals_total",
			Help: "Withdrawal requests by resulting status",
		},
		[]string{"status"},
	)
	Signups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_signups_total",
			Help: "Signups by referral outcome (none, applied, skipped)",
		},
		[]string{"referral"},
	)
	SecurityFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_security_check_failures_total",
			Help: "Sensitive actions refused by the binding guard or PIN check",
		},
		[]string{"action", "reason"},
	)
	TokenFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_token_failures_total",
			Help: "Rejected session tokens by reason",
		},
		[]string{"reason"},
	)
	ChatProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_chat_provider_errors_total",
			Help: "Chat completion failures by kind",
		},
		[]string{"kind"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(LedgerEntries)
	prometheus.MustRegister(Withdrawals)
	prometheus.MustRegister(Signups)
	prometheus.MustRegister(SecurityFailures)
	prometheus.MustRegister(TokenFailures)
	prometheus.MustRegister(ChatProviderErrors)
	prometheus.MustRegister(HTTPDuration)
}
