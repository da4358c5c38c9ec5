package utils

import (
	"github.com/sirupsen/logrus"
	"github.com/sparksblog/sparks/utils/flag"
	Logger "github.com/sparksblog/sparks/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func init() {
	// Datadog tracer

	env := "development"
	if !flag.IsDevelopment {
		env = "production"
	}

	tracer.Start(
		tracer.WithService(flag.ServiceName),
		tracer.WithEnv(env),
	)

	Logger.Log.WithFields(
		logrus.Fields{"service": flag.ServiceName, "is_development": flag.IsDevelopment},
	).Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	// Datadog tracer
	tracer.Stop()
}
