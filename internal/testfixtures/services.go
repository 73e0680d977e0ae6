package testfixtures

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/example/clinic-scheduler/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
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

// SchedulingServiceDeps captures dependencies for constructing a scheduling service.
type SchedulingServiceDeps struct {
	Store          application.BookingStore
	IDGenerator    func() string
	Now            func() time.Time
	Logger         *zerolog.Logger
	MaxOccurrences int
}

// NewSchedulingService builds a scheduling service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewSchedulingService(deps SchedulingServiceDeps) *application.SchedulingService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	service := application.NewSchedulingServiceWithLogger(deps.Store, idGen, now, deps.Logger)
	if deps.MaxOccurrences > 0 {
		service = service.WithMaxOccurrences(deps.MaxOccurrences)
	}
	return service
}

// RoomServiceDeps captures dependencies for constructing a room service.
type RoomServiceDeps struct {
	Rooms       application.RoomRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *zerolog.Logger
}

// NewRoomService builds a room service using the supplied dependencies.
func (f *ServiceFactory) NewRoomService(deps RoomServiceDeps) *application.RoomService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewRoomServiceWithLogger(deps.Rooms, idGen, now, deps.Logger)
}
