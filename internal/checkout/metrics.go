package checkout

import "github.com/prometheus/client_golang/prometheus"

const (
	orderResultSuccess   = "success"
	orderResultFailed    = "failed"
	orderResultRejected  = "rejected"
	orderResultDuplicate = "duplicate"
)

var ordersTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Total number of order submission attempts by result",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(ordersTotal)
}
