package health

import (
	"context"
	"sync"
	"time"

	"membership-platform/backend/pkg/logger"

	"github.com/robfig/cron/v3"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
	// StatusDegraded indicates a component is working but with reduced functionality
	StatusDegraded Status = "degraded"
)

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Critical    bool      `json:"critical"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func(ctx context.Context) (Status, string, error)

type registered struct {
	check    Check
	critical bool
}

// Checker manages health checks for the system
type Checker struct {
	checks     map[string]registered
	components map[string]*Component
	timeout    time.Duration
	mutex      sync.RWMutex
	log        *logger.Logger
	grpc       *grpchealth.Server
}

// NewChecker creates a new health checker; each check gets at most timeout to answer.
func NewChecker(log *logger.Logger, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	checker := &Checker{
		checks:     make(map[string]registered),
		components: make(map[string]*Component),
		timeout:    timeout,
		log:        log,
		grpc:       grpchealth.NewServer(),
	}

	checker.RegisterCheck("self", false, func(context.Context) (Status, string, error) {
		return StatusUp, "Health checker is running", nil
	})

	return checker
}

// RegisterCheck registers a new health check. A critical component that is down
// makes the whole system unhealthy.
func (c *Checker) RegisterCheck(name string, critical bool, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = registered{check: check, critical: critical}
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Critical:    critical,
		Description: "Not checked yet",
	}
}

// RunChecks executes all registered health checks
func (c *Checker) RunChecks(ctx context.Context) {
	c.mutex.RLock()
	checks := make(map[string]registered, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mutex.RUnlock()

	for name, reg := range checks {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		status, description, err := reg.check(cctx)
		cancel()

		c.mutex.Lock()
		component := c.components[name]
		component.Status = status
		component.Description = description
		component.LastChecked = time.Now()
		if err != nil {
			component.Error = err.Error()
		} else {
			component.Error = ""
		}
		c.mutex.Unlock()

		if err != nil {
			c.log.Error("Health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
		} else {
			c.log.Debug("Health check completed", "component", name, "status", string(status))
		}
	}

	c.publish()
}

// Start runs the checks now and then on the cron schedule (e.g. "@every 30s")
// until the returned stop function is called.
func (c *Checker) Start(ctx context.Context, schedule string) (func(), error) {
	c.RunChecks(ctx)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() { c.RunChecks(ctx) }); err != nil {
		return nil, err
	}
	scheduler.Start()

	return func() {
		<-scheduler.Stop().Done()
	}, nil
}

// GetStatus returns the current health status
func (c *Checker) GetStatus() map[string]*Component {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make(map[string]*Component, len(c.components))
	for k, v := range c.components {
		componentCopy := *v
		result[k] = &componentCopy
	}
	return result
}

// IsSystemHealthy returns true if all critical components are up
func (c *Checker) IsSystemHealthy() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, component := range c.components {
		if component.Critical && component.Status == StatusDown {
			return false
		}
	}
	return true
}

// GRPCServer is the grpc.health.v1 service mirroring IsSystemHealthy
func (c *Checker) GRPCServer() *grpchealth.Server {
	return c.grpc
}

func (c *Checker) publish() {
	status := healthpb.HealthCheckResponse_SERVING
	if !c.IsSystemHealthy() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.grpc.SetServingStatus("", status)
}

// RegisterPingCheck registers a critical check backed by a ping function (database, redis)
func (c *Checker) RegisterPingCheck(name string, critical bool, ping func(ctx context.Context) error) {
	c.RegisterCheck(name, critical, func(ctx context.Context) (Status, string, error) {
		if err := ping(ctx); err != nil {
			return StatusDown, name + " unreachable", err
		}
		return StatusUp, name + " reachable", nil
	})
}
