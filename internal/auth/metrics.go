package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// loginCounter counts interactive login outcomes by result.
var loginCounter = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "logins_total",
		Help: "Number of interactive login attempts, differentiated by outcome.",
	},
	[]string{"result"},
)

const (
	resultSuccess     = "success"
	resultInvalid     = "invalid"
	resultBlocked     = "blocked"
	resultAmbiguous   = "ambiguous"
	resultNoAccess    = "no_access"
	resultUnavailable = "directory_unavailable"
)
