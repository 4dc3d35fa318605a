package tracing

import (
	"fmt"

	"github.com/opentracing/opentracing-go"
	jCfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"

	"crypto_bot/pkg/logger"
)

type Config struct {
	ServiceName string
	Host        string
	Port        int
	// SampleRate: доля трассируемых запросов, 0 считается как 1.
	SampleRate float64
}

// InitTracer поднимает Jaeger и делает его глобальным трейсером opentracing.
// Клиенты бирж и внешних API открывают спаны через opentracing.StartSpanFromContext.
func InitTracer(conf Config) (opentracing.Tracer, func(), error) {
	if conf.ServiceName == "" {
		return nil, nil, fmt.Errorf("tracing: empty service name")
	}

	sampler := &jCfg.SamplerConfig{Type: "const", Param: 1}
	if conf.SampleRate > 0 && conf.SampleRate < 1 {
		sampler = &jCfg.SamplerConfig{Type: "probabilistic", Param: conf.SampleRate}
	}

	cfg := &jCfg.Configuration{
		ServiceName: conf.ServiceName,
		Sampler:     sampler,
		Reporter: &jCfg.ReporterConfig{
			LocalAgentHostPort: fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		},
	}

	tracer, closer, err := cfg.NewTracer(jCfg.Metrics(metrics.NullFactory))
	if err != nil {
		return nil, nil, fmt.Errorf("tracing: %w", err)
	}

	prev := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(tracer)
	return tracer, func() {
		opentracing.SetGlobalTracer(prev)
		if err := closer.Close(); err != nil {
			logger.Error("closing jaeger tracer: %v", err)
		}
	}, nil
}
