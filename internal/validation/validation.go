// Package validation checks at startup that the services named in
// REQUIRED_SERVICES are configured and reachable.
package validation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"go.uber.org/zap"
)

// Known service names.
const (
	ServiceRedis         = "redis"
	ServiceElasticsearch = "elasticsearch"
	ServiceS3            = "s3"
	ServiceSES           = "ses"
)

// DefaultCheckTimeout bounds each service check.
const DefaultCheckTimeout = 10 * time.Second

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// ServiceValidator runs reachability checks for optional services. Checks are
// registered only for services that were configured.
type ServiceValidator struct {
	requiredServices []string
	timeout          time.Duration

	mu     sync.RWMutex
	checks map[string]Check
}

// NewServiceValidator creates a validator that fails for any of required that
// is unregistered or unreachable.
func NewServiceValidator(required []string) *ServiceValidator {
	return &ServiceValidator{
		requiredServices: required,
		timeout:          DefaultCheckTimeout,
		checks:           make(map[string]Check),
	}
}

// Register adds the check for a configured service.
func (sv *ServiceValidator) Register(name string, check Check) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	sv.checks[name] = check
}

// ValidateServices validates every required service
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services", zap.Strings("services", sv.requiredServices))

	for _, name := range sv.requiredServices {
		sv.mu.RLock()
		check, ok := sv.checks[name]
		sv.mu.RUnlock()
		if !ok {
			return fmt.Errorf("required service %q is not configured", name)
		}

		if err := sv.run(ctx, check); err != nil {
			logger.Log.Error("Required service validation failed", zap.String("service", name), zap.Error(err))
			return fmt.Errorf("required service %q validation failed: %w", name, err)
		}
		logger.Log.Info("Service validated successfully", zap.String("service", name))
	}

	return nil
}

// Status runs every registered check and returns "ok" or the error text per
// service. The health endpoint reports it.
func (sv *ServiceValidator) Status(ctx context.Context) map[string]string {
	sv.mu.RLock()
	names := make([]string, 0, len(sv.checks))
	for name := range sv.checks {
		names = append(names, name)
	}
	sv.mu.RUnlock()
	sort.Strings(names)

	status := make(map[string]string, len(names))
	for _, name := range names {
		sv.mu.RLock()
		check := sv.checks[name]
		sv.mu.RUnlock()
		if err := sv.run(ctx, check); err != nil {
			status[name] = err.Error()
			continue
		}
		status[name] = "ok"
	}
	return status
}

func (sv *ServiceValidator) run(ctx context.Context, check Check) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, sv.timeout)
	defer cancel()
	return check(timeoutCtx)
}
