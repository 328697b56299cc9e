package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(buildInfo) }

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "jobqueue_build_info",
		Help: "A constant metric labeled with service, version and environment.",
	},
	[]string{"service", "version", "environment"},
)

func SetBuildInfo(service, version, environment string) {
	buildInfo.WithLabelValues(service, version, environment).Set(1)
}
