// Package metrics holds the Prometheus collectors for guest registration and
// code redemption.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultSuccess         = "success"
	ResultInvalidCode     = "invalid_code"
	ResultAlreadyRedeemed = "already_redeemed"
	ResultRejected        = "rejected"
	ResultError           = "error"
)

type Recorder struct {
	registrations prometheus.Counter
	redemptions   *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer to
// expose them on /metrics.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "giftdesk",
			Name:      "guest_registrations_total",
			Help:      "Guests registered with an issued code.",
		}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftdesk",
			Name:      "guest_redemptions_total",
			Help:      "Code redemption attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(r.registrations, r.redemptions)
	return r
}

func (r *Recorder) GuestRegistered() {
	r.registrations.Inc()
}

func (r *Recorder) Redemption(result string) {
	r.redemptions.WithLabelValues(result).Inc()
}
