package manager

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	loads          *prometheus.CounterVec
	predictions    *prometheus.CounterVec
	busy           *prometheus.CounterVec
	predictSeconds *prometheus.HistogramVec
	loaded         prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowd",
				Subsystem: "manager",
				Name:      "loads_total",
				Help:      "Model loads by plugin and result",
			},
			[]string{"plugin", "result"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowd",
				Subsystem: "manager",
				Name:      "predictions_total",
				Help:      "Predictions by plugin and result",
			},
			[]string{"plugin", "result"},
		),
		busy: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowd",
				Subsystem: "manager",
				Name:      "busy_rejections_total",
				Help:      "Operations rejected because the execution guard was taken",
			},
			[]string{"op"},
		),
		predictSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flowd",
				Subsystem: "manager",
				Name:      "predict_duration_seconds",
				Help:      "Plugin predict wall time in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"plugin"},
		),
		loaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowd",
			Subsystem: "manager",
			Name:      "model_loaded",
			Help:      "1 when a model is loaded",
		}),
	}
}

func (m *metrics) register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.loads, m.predictions, m.busy, m.predictSeconds, m.loaded} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
