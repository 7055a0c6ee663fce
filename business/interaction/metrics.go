package interaction

import "github.com/prometheus/client_golang/prometheus"

var UpdatesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "recommendation_interaction_updates_total",
		Help: "Interaction updates applied to recommendation events, by kind and result.",
	},
	[]string{"kind", "result"},
)

func init() {
	prometheus.MustRegister(UpdatesTotal)
}
