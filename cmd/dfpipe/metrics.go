package main

import (
	"fmt"

	"dfpipe/internal/metrics"
	"dfpipe/internal/metrics/datadog"
	"dfpipe/internal/metrics/prompush"
)

const (
	defaultPushGatewayURL = "http://localhost:9091"
	defaultDogStatsDAddr  = "127.0.0.1:8125"
)

type metricsConfig struct {
	Backend        string
	PushGatewayURL string
	DogStatsDAddr  string
	Job            string
}

// newMetricsBackend builds the backend named by c.Backend. A nil backend with
// a nil error means metrics are disabled.
func newMetricsBackend(c metricsConfig) (metrics.Backend, error) {
	switch c.Backend {
	case "", "none":
		return nil, nil
	case "pushgateway":
		b, err := prompush.NewBackend(c.Job, c.PushGatewayURL)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       c.DogStatsDAddr,
			GlobalTags: []string{"job:" + c.Job},
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}
