// Package metrics exposes Prometheus instrumentation for conversations: auto
// replies by strategy, completion requests, code executions, group chat rounds
// and speaker selection outcomes.
//
// All recording methods are safe to call on a nil *Collector, so components
// can hold an optional collector without guarding every call site.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace is used when NewCollector receives an empty namespace.
const DefaultNamespace = "agentchat"

// Collector holds the registered metric vectors.
type Collector struct {
	repliesTotal *prometheus.CounterVec

	completionRequestsTotal   *prometheus.CounterVec
	completionRequestDuration *prometheus.HistogramVec

	codeExecutionsTotal   *prometheus.CounterVec
	codeExecutionDuration *prometheus.HistogramVec

	groupChatRoundsTotal    *prometheus.CounterVec
	speakerSelectionsTotal  *prometheus.CounterVec
	adminFallbacksTotal     *prometheus.CounterVec
	humanInputRequestsTotal *prometheus.CounterVec
}

// NewCollector registers the agentchat metrics on reg. A nil registerer
// falls back to prometheus.DefaultRegisterer.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	c := &Collector{}

	c.repliesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Replies generated, by agent and deciding strategy",
		},
		[]string{"agent", "strategy"},
	)

	c.completionRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Completion service requests, by agent and status",
		},
		[]string{"agent", "status"},
	)

	c.completionRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_request_duration_seconds",
			Help:      "Completion service latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"agent"},
	)

	c.codeExecutionsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_executions_total",
			Help:      "Code blocks executed, by language, backend and outcome",
		},
		[]string{"language", "backend", "status"},
	)

	c.codeExecutionDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "code_execution_duration_seconds",
			Help:      "Code block execution time in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"language", "backend"},
	)

	c.groupChatRoundsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groupchat_rounds_total",
			Help:      "Group chat rounds started, by manager",
		},
		[]string{"manager"},
	)

	c.speakerSelectionsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speaker_selections_total",
			Help:      "Speaker selections, by outcome",
		},
		[]string{"manager", "status"},
	)

	c.adminFallbacksTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_fallbacks_total",
			Help:      "Turns handed to the admin agent after a failed selection or reply",
		},
		[]string{"manager"},
	)

	c.humanInputRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "human_input_requests_total",
			Help:      "Human input prompts, by agent and whether input was provided",
		},
		[]string{"agent", "provided"},
	)

	return c
}

// RecordReply counts a reply decided by strategy.
func (c *Collector) RecordReply(agent, strategy string) {
	if c == nil {
		return
	}
	c.repliesTotal.WithLabelValues(agent, strategy).Inc()
}

// RecordCompletion records one completion request.
func (c *Collector) RecordCompletion(agent string, dur time.Duration, err error) {
	if c == nil {
		return
	}
	c.completionRequestsTotal.WithLabelValues(agent, status(err)).Inc()
	c.completionRequestDuration.WithLabelValues(agent).Observe(dur.Seconds())
}

// RecordCodeExecution records one executed block. exitCode is ignored when err is set.
func (c *Collector) RecordCodeExecution(language, backend string, exitCode int, dur time.Duration, err error) {
	if c == nil {
		return
	}
	st := "success"
	switch {
	case err != nil:
		st = "error"
	case exitCode != 0:
		st = "exit_" + strconv.Itoa(exitCode)
	}
	c.codeExecutionsTotal.WithLabelValues(language, backend, st).Inc()
	c.codeExecutionDuration.WithLabelValues(language, backend).Observe(dur.Seconds())
}

// RecordRound counts a group chat round.
func (c *Collector) RecordRound(manager string) {
	if c == nil {
		return
	}
	c.groupChatRoundsTotal.WithLabelValues(manager).Inc()
}

// RecordSpeakerSelection counts a speaker selection outcome.
func (c *Collector) RecordSpeakerSelection(manager string, err error) {
	if c == nil {
		return
	}
	c.speakerSelectionsTotal.WithLabelValues(manager, status(err)).Inc()
}

// RecordAdminFallback counts a turn handed to the admin agent.
func (c *Collector) RecordAdminFallback(manager string) {
	if c == nil {
		return
	}
	c.adminFallbacksTotal.WithLabelValues(manager).Inc()
}

// RecordHumanInput counts a human input prompt.
func (c *Collector) RecordHumanInput(agent string, provided bool) {
	if c == nil {
		return
	}
	c.humanInputRequestsTotal.WithLabelValues(agent, strconv.FormatBool(provided)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
