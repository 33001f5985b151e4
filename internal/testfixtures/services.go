package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/office-reservations/internal/application"
	"github.com/example/office-reservations/internal/bootstrap"
	"github.com/example/office-reservations/internal/events"
	"github.com/example/office-reservations/internal/locking"
	"github.com/example/office-reservations/internal/timetable"
)

// fastArgon2idParams keeps password hashing cheap in tests.
var fastArgon2idParams = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Events      *events.Recorder
	Locker      locking.Locker
	Catalog     *timetable.Catalog
	SpanMode    application.SpanMode
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Events:      &events.Recorder{},
		Locker:      locking.NewLocalLocker(),
		Catalog:     timetable.DefaultCatalog(),
		SpanMode:    application.SpanModeSlot,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithSpanMode selects slot or range booking.
func WithSpanMode(mode application.SpanMode) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.SpanMode = mode
	}
}

// WithLocker overrides the per-room locker.
func WithLocker(locker locking.Locker) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Locker = locker
	}
}

// Options returns bootstrap options using the factory defaults. Times are
// interpreted in UTC.
func (f *ServiceFactory) Options() bootstrap.Options {
	return bootstrap.Options{
		Catalog:     f.Catalog,
		Location:    time.UTC,
		SpanMode:    f.SpanMode,
		Locker:      f.Locker,
		Publisher:   f.Events,
		Hasher:      application.NewPasswordHasher(fastArgon2idParams),
		IDGenerator: f.IDGenerator.NextFunc(),
		Now:         f.Clock.NowFunc(),
		Logger:      f.Logger,
	}
}

// NewServices wires every application service to the harness database.
func (f *ServiceFactory) NewServices(harness *SQLiteHarness) *bootstrap.Services {
	return bootstrap.NewServices(harness.Store, f.Options())
}
