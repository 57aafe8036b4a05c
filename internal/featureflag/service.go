package featureflag

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"todo-list/internal/observable"
)

type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	// ReadyWithDefaults means the service is usable but serves compiled-in
	// defaults because the remote source could not be reached or is absent.
	ReadyWithDefaults
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case ReadyWithDefaults:
		return "ready_with_defaults"
	}
	return "unknown"
}

// Settings control fetch behaviour.
type Settings struct {
	FetchTimeout time.Duration
	// MinFetchInterval is the minimum time between two remote fetches. Zero
	// disables the limit.
	MinFetchInterval time.Duration
}

var refreshTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "feature_flag_fetch_total",
		Help: "Remote config fetch attempts by outcome",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(refreshTotal)
}

// Service owns the feature flag state. It is the only writer of the dark
// mode value; consumers get a read-only handle through DarkMode.
type Service struct {
	source   Source
	settings Settings
	limiter  *rate.Limiter

	// fetchMu serializes fetch-and-apply so published values keep fetch order.
	fetchMu sync.Mutex

	mu        sync.RWMutex
	state     State
	supported bool
	flags     Flags
	// activated holds the last successfully fetched remote values.
	activated map[string]string

	darkMode *observable.Value[bool]
}

func NewService(source Source, settings Settings) *Service {
	limit := rate.Inf
	if settings.MinFetchInterval > 0 {
		limit = rate.Every(settings.MinFetchInterval)
	}
	return &Service{
		source:   source,
		settings: settings,
		limiter:  rate.NewLimiter(limit, 1),
		flags:    Defaults,
		darkMode: observable.NewValue(false),
	}
}

// Initialize fetches and activates remote values once. Any failure falls back
// to defaults; the service always ends up initialized. Calls after the first
// return the current state without fetching.
func (s *Service) Initialize(ctx context.Context) State {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	s.mu.Lock()
	if s.state != Uninitialized {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.state = Initializing
	s.supported = true
	s.mu.Unlock()
	log.WithField("state", Initializing).Info("feature flags initializing")

	err := s.fetchAndActivate(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupported):
		s.mu.Lock()
		s.supported = false
		s.mu.Unlock()
		log.Info("remote config not supported, using default values")
		s.applyDefaults()
	case errors.Is(err, ErrThrottled):
		log.Info("remote config fetch throttled, using cached values")
		s.applyCached()
	default:
		log.WithError(err).Warn("remote config initialization failed, using default values")
		s.applyDefaults()
	}

	st := s.State()
	log.WithField("state", st).Info("feature flags initialized")
	return st
}

// Refresh re-fetches remote values. It reports whether the flags were
// updated from the remote source or its cache; it never returns an error.
// A fetch inside the minimum interval is treated as throttled and keeps the
// cached values.
func (s *Service) Refresh(ctx context.Context) bool {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	s.mu.RLock()
	initialized := s.state == Ready || s.state == ReadyWithDefaults
	supported := s.supported
	s.mu.RUnlock()
	if !initialized || !supported {
		log.WithField("state", s.State()).Debug("cannot refresh remote config")
		return false
	}

	err := s.fetchAndActivate(ctx)
	switch {
	case err == nil:
		log.Debug("remote config refreshed")
		return true
	case errors.Is(err, ErrThrottled):
		log.Debug("remote config fetch throttled, using cached values")
		s.applyCached()
		return true
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrPermissionDenied):
		log.WithError(err).Warn("remote config refresh failed, using default values")
		s.applyDefaults()
		return false
	default:
		log.WithError(err).Warn("remote config refresh failed, keeping current values")
		return false
	}
}

func (s *Service) fetchAndActivate(ctx context.Context) error {
	if !s.limiter.Allow() {
		refreshTotal.WithLabelValues("throttled").Inc()
		return ErrThrottled
	}

	if s.settings.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.FetchTimeout)
		defer cancel()
	}
	values, err := s.source.Fetch(ctx)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		refreshTotal.WithLabelValues(outcome(err)).Inc()
		return err
	}
	refreshTotal.WithLabelValues("activated").Inc()

	s.mu.Lock()
	s.activated = values
	s.mu.Unlock()
	s.publish(FromValues(values, Defaults), Ready)
	return nil
}

func (s *Service) applyDefaults() {
	s.publish(Defaults, ReadyWithDefaults)
}

// applyCached re-applies the last activated values, or the defaults when
// nothing was ever activated.
func (s *Service) applyCached() {
	s.mu.RLock()
	cached := s.activated
	s.mu.RUnlock()
	if cached == nil {
		s.applyDefaults()
		return
	}
	s.publish(FromValues(cached, Defaults), Ready)
}

func (s *Service) publish(f Flags, st State) {
	s.mu.Lock()
	prev := s.state
	s.flags = f
	s.state = st
	s.mu.Unlock()

	if prev != st && prev != Initializing {
		log.WithFields(log.Fields{"from": prev, "to": st}).Info("feature flag state changed")
	}
	log.WithField("dark_mode", f.DarkModeEnabled).Debug("feature flags updated")
	s.darkMode.Set(f.DarkModeEnabled)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrThrottled):
		return "throttled"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "error"
}

// IsDarkModeEnabled reports false until the service has been initialized.
func (s *Service) IsDarkModeEnabled() bool {
	return s.darkMode.Get()
}

// DarkMode exposes the dark mode flag to readers.
func (s *Service) DarkMode() observable.Reader[bool] {
	return s.darkMode.ReadOnly()
}

func (s *Service) IsConfigInitialized() bool {
	st := s.State()
	return st == Ready || st == ReadyWithDefaults
}

func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) Flags() Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

func (s *Service) AppVersionRequired() string { return s.Flags().AppVersionRequired }

func (s *Service) MaintenanceMode() bool { return s.Flags().MaintenanceMode }
