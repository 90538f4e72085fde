package middleware

import (
	pyroscope "github.com/grafana/pyroscope-go"

	"github.com/hrgate/auth-gateway/config"
)

var profiler *pyroscope.Profiler

// InitProfiling starts the Pyroscope agent. Call StopProfiling on shutdown.
func InitProfiling(cfg *config.Config) error {
	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.Service.Name,
		ServerAddress:   cfg.Profiling.Endpoint,
		Tags: map[string]string{
			"version": cfg.Service.Version,
			"env":     cfg.Service.Env,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		return err
	}
	profiler = p
	return nil
}

// StopProfiling flushes and stops the Pyroscope agent, if running.
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
		profiler = nil
	}
}
