package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/chain"
	"github.com/bituzin/stacks-boost-app/internal/lifecycle"
	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stacksboost"

// Registry owns the engine's Prometheus collectors. It satisfies the HTTP
// client, lifecycle and reconciliation observer interfaces.
type Registry struct {
	registry *prometheus.Registry

	submissionsTotal    *prometheus.CounterVec
	submitFailuresTotal *prometheus.CounterVec
	pollAttemptsTotal   *prometheus.CounterVec
	settlementsTotal    *prometheus.CounterVec
	refreshesTotal      *prometheus.CounterVec
	upstreamRequests    *prometheus.HistogramVec
	upstreamRetries     *prometheus.CounterVec
	walletSessions      *prometheus.GaugeVec
}

// New builds a registry with every collector registered
func New() *Registry {
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Transactions accepted by a wallet",
	}, []string{"action", "wallet"})

	submitFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submission_failures_total",
		Help:      "Submissions rejected before a transaction id was obtained",
	}, []string{"action", "reason"})

	polls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmation_polls_total",
		Help:      "Confirmation poll attempts by outcome",
	}, []string{"outcome"})

	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Transactions that reached a terminal chain status",
	}, []string{"action", "status"})

	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "position_refreshes_total",
		Help:      "Lending position refreshes by field and result",
	}, []string{"field", "result"})

	requests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of outbound HTTP requests including retries",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_retries_total",
		Help:      "Retried outbound HTTP requests",
	}, []string{"method", "route"})

	sessions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "wallet_session_connected",
		Help:      "1 while the wallet of the given kind holds a connected session",
	}, []string{"wallet"})

	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		submissions, submitFailures, polls, settlements, refreshes, requests, retries, sessions,
	)

	return &Registry{
		registry:            r,
		submissionsTotal:    submissions,
		submitFailuresTotal: submitFailures,
		pollAttemptsTotal:   polls,
		settlementsTotal:    settlements,
		refreshesTotal:      refreshes,
		upstreamRequests:    requests,
		upstreamRetries:     retries,
		walletSessions:      sessions,
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests
func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Registry) Submitted(action lifecycle.Action, kind wallet.Kind) {
	m.submissionsTotal.WithLabelValues(string(action), string(kind)).Inc()
}

func (m *Registry) SubmitFailed(action lifecycle.Action, reason string) {
	m.submitFailuresTotal.WithLabelValues(string(action), reason).Inc()
}

func (m *Registry) PollAttempt(outcome string) {
	m.pollAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Registry) Settled(action lifecycle.Action, status chain.TxStatus) {
	m.settlementsTotal.WithLabelValues(string(action), string(status)).Inc()
}

// Refreshed records one reconciliation field fetch
func (m *Registry) Refreshed(field string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.refreshesTotal.WithLabelValues(field, result).Inc()
}

// ObserveRequest records an outbound request. A zero status means the
// request never produced a response.
func (m *Registry) ObserveRequest(method, route string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.upstreamRequests.WithLabelValues(method, RouteLabel(route), status).Observe(duration.Seconds())
}

func (m *Registry) IncRetry(method, route string) {
	m.upstreamRetries.WithLabelValues(method, RouteLabel(route)).Inc()
}

// WalletSession tracks whether the adapter of kind is connected
func (m *Registry) WalletSession(kind wallet.Kind, session wallet.Session) {
	v := 0.0
	if session.Status == wallet.StatusConnected {
		v = 1
	}
	m.walletSessions.WithLabelValues(string(kind)).Set(v)
}

// routeTemplates collapse per-address and per-transaction path segments so
// label cardinality stays bounded
var routeTemplates = []struct {
	prefix   string
	template string
}{
	{prefix: "/extended/v1/address/", template: "/extended/v1/address/:address/"},
	{prefix: "/extended/v1/tx/", template: "/extended/v1/tx/:txid"},
	{prefix: "/v2/map_entry/", template: "/v2/map_entry/:contract/:name/:map"},
	{prefix: "/v1/requests/", template: "/v1/requests/:id"},
}

// RouteLabel reduces a request path to its route template
func RouteLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, rt := range routeTemplates {
		rest, ok := strings.CutPrefix(path, rt.prefix)
		if !ok {
			continue
		}
		if rt.prefix == "/extended/v1/address/" {
			// keep the trailing resource (balances, transactions)
			parts := strings.SplitN(rest, "/", 2)
			if len(parts) == 2 {
				return rt.template + parts[1]
			}
			return strings.TrimSuffix(rt.template, "/")
		}
		return rt.template
	}
	return path
}
