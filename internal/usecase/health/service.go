// Package health aggregates liveness checks for the store, the embedding
// provider, and the completion chain into one report.
package health

import "context"

// Status is the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Search and answering may still
	// work through fallback tiers.
	Degraded Status = "degraded"
)

// CheckResult is an individual component check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing check.
	CheckError CheckResult = "error"
)

// Report aggregates component check results.
type Report struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Providers []string               `json:"completion_providers,omitempty"`
}

// Service coordinates health checks.
type Service struct {
	db            DBPinger
	embedding     EmbeddingChecker
	providerNames []string
}

// New creates a Service. embedding can be nil when no embedding provider is
// configured; providerNames is the ordered completion chain for diagnostics.
func New(db DBPinger, embedding EmbeddingChecker, providerNames []string) *Service {
	return &Service{db: db, embedding: embedding, providerNames: providerNames}
}

// Check runs all component checks. A database or embedding failure degrades
// the report but never errors: the endpoint always answers.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if len(s.providerNames) == 0 {
		checks["completion"] = CheckError
	} else {
		checks["completion"] = CheckOK
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Providers: s.providerNames}
}
