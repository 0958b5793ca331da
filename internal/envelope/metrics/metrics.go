package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for the signing workflow.
type Metrics struct {
	EnvelopesCreated   prometheus.Counter
	EnvelopesSent      prometheus.Counter
	EnvelopesCompleted prometheus.Counter
	EnvelopesDeclined  prometheus.Counter
	EnvelopesVoided    prometheus.Counter
	EnvelopesExpired   prometheus.Counter
	RecipientsSigned   prometheus.Counter
	AccessVerifyDenied prometheus.Counter
}

// New creates and registers all workflow metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		EnvelopesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_envelopes_created_total",
			Help: "Total number of envelopes created",
		}),
		EnvelopesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_envelopes_sent_total",
			Help: "Total number of envelopes sent to recipients",
		}),
		EnvelopesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_envelopes_completed_total",
			Help: "Total number of envelopes completed by all signers",
		}),
		EnvelopesDeclined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_envelopes_declined_total",
			Help: "Total number of envelopes aborted by a recipient decline",
		}),
		EnvelopesVoided: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_envelopes_voided_total",
			Help: "Total number of envelopes voided by their sender",
		}),
		EnvelopesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_envelopes_expired_total",
			Help: "Total number of envelopes expired past their deadline",
		}),
		RecipientsSigned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_recipients_signed_total",
			Help: "Total number of recipient signatures recorded",
		}),
		AccessVerifyDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "signet_access_verify_denied_total",
			Help: "Total number of failed recipient access verifications",
		}),
	}
}
