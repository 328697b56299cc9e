package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(dbPoolStats) }

var dbPoolStats = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "jobqueue_db_pool_connections",
		Help: "Current state of the database connection pool.",
	},
	[]string{"state"}, // 'open', 'idle', 'in_use'
)

// SetDBPoolStats publishes a connection pool snapshot
func SetDBPoolStats(stats sql.DBStats) {
	dbPoolStats.WithLabelValues("open").Set(float64(stats.OpenConnections))
	dbPoolStats.WithLabelValues("idle").Set(float64(stats.Idle))
	dbPoolStats.WithLabelValues("in_use").Set(float64(stats.InUse))
}
