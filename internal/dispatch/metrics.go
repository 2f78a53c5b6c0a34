package dispatch

import "github.com/prometheus/client_golang/prometheus"

// Command outcomes.
const (
	outcomeOK      = "ok"
	outcomeDenied  = "denied"
	outcomeFailed  = "error"
	outcomeIgnored = "ignored"
)

var commandsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cheshire_commands_total",
		Help: "Total number of bot commands handled, by command and outcome.",
	},
	[]string{"command", "outcome"},
)

func init() {
	prometheus.MustRegister(commandsTotal)
}
