package health

import "time"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckStale indicates a catalog that has not been refreshed for too long.
	CheckStale CheckResult = "stale"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// CatalogInfo describes the served catalog.
type CatalogInfo struct {
	Version     uint64
	Entries     int
	UpdatedAt   time.Time
	LastError   string
	Failures    int
	LastAttempt time.Time
}

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Catalog CatalogInfo
}

// Service coordinates health checks.
type Service struct {
	catalog   CatalogReader
	refresh   RefreshStatus
	transport TransportChecker
	maxAge    time.Duration
	now       func() time.Time
}

// New creates a Service. A catalog older than maxAge is reported stale.
// refresh and transport can be nil.
func New(catalog CatalogReader, refresh RefreshStatus, transport TransportChecker, maxAge time.Duration) *Service {
	return &Service{catalog: catalog, refresh: refresh, transport: transport, maxAge: maxAge, now: time.Now}
}

// Check runs health checks against all components.
// No catalog at all is unhealthy; a stale catalog still serves searches and is degraded.
func (s *Service) Check() Report {
	checks := make(map[string]CheckResult)
	snap := s.catalog.Read()

	info := CatalogInfo{Version: snap.Version, Entries: snap.Catalog.Len(), UpdatedAt: snap.UpdatedAt}
	if s.refresh != nil {
		st := s.refresh.Status()
		info.LastError = st.LastError
		info.Failures = st.Failures
		info.LastAttempt = st.LastAttempt
	}

	switch {
	case !snap.Loaded():
		checks["catalog"] = CheckError
	case s.maxAge > 0 && s.now().Sub(snap.UpdatedAt) > s.maxAge:
		checks["catalog"] = CheckStale
	default:
		checks["catalog"] = CheckOK
	}

	if s.transport != nil {
		if s.transport.Username() == "" {
			checks["telegram"] = CheckError
		} else {
			checks["telegram"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
		}
	}
	if checks["catalog"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks, Catalog: info}
}
