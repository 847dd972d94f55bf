package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codewandler/mbus-go/core/actor"
	"github.com/codewandler/mbus-go/core/bus"
)

type BusConfig struct {
	Metrics bus.Metrics
}

type ActorConfig struct {
	Metrics            actor.Metrics
	MaxConcurrentTasks int
	OnPanic            actor.OnPanic
}

type Config struct {
	Context context.Context
	Log     *slog.Logger
	Bus     BusConfig
	Actor   ActorConfig
}

// App owns one bus and the services running on it. The first service that
// fails cancels all others.
type App struct {
	ctx       context.Context
	log       *slog.Logger
	cancelCtx context.CancelFunc
	bus       *bus.Bus
	actorCfg  ActorConfig

	mu       sync.Mutex
	services []*actor.Service
	group    *errgroup.Group
	groupCtx context.Context
}

func New(config Config) *App {
	// === logger ===
	if config.Log == nil {
		config.Log = slog.Default()
	}

	// === context ===
	if config.Context == nil {
		config.Context = context.Background()
	}

	a := &App{
		log:      config.Log,
		actorCfg: config.Actor,
	}
	a.ctx, a.cancelCtx = context.WithCancel(config.Context)
	a.bus = bus.New(bus.Options{
		Logger:  a.log,
		Metrics: config.Bus.Metrics,
	})
	return a
}

func (a *App) Bus() *bus.Bus { return a.bus }

// Services returns the services added so far in the order they were added.
func (a *App) Services() []*actor.Service {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*actor.Service(nil), a.services...)
}

// Spawn creates a service on the app's bus with the app's actor defaults
// and adds it. If the app is already running the service starts right away.
func (a *App) Spawn(name string, regs ...actor.HandlerRegistration) *actor.Service {
	svc := actor.New(a.bus, actor.Options{
		Name:               name,
		Logger:             a.log,
		Metrics:            a.actorCfg.Metrics,
		OnPanic:            a.actorCfg.OnPanic,
		MaxConcurrentTasks: a.actorCfg.MaxConcurrentTasks,
	}, regs...)
	a.Add(svc)
	return svc
}

// Add adds services created with actor.New on the app's bus. If the app is
// already running they start right away.
func (a *App) Add(services ...*actor.Service) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.services = append(a.services, services...)
	if a.group != nil {
		for _, svc := range services {
			a.start(svc)
		}
	}
}

// must hold a.mu
func (a *App) start(svc *actor.Service) {
	ctx := a.groupCtx
	a.group.Go(func() error {
		if err := svc.Run(ctx); err != nil {
			return fmt.Errorf("service %s: %w", svc.Name(), err)
		}
		return nil
	})
}

// Run starts all services added so far. It does not block.
func (a *App) Run() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.group != nil {
		return ErrAlreadyRunning
	}
	a.group, a.groupCtx = errgroup.WithContext(a.ctx)
	for _, svc := range a.services {
		a.start(svc)
	}

	a.log.Debug("app started", slog.Int("services", len(a.services)))
	return nil
}

// WaitReady blocks until every service added so far has completed its
// setup. It fails if a service stops before it becomes ready or if ctx ends.
func (a *App) WaitReady(ctx context.Context) error {
	for _, svc := range a.Services() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-svc.Ready():
		case <-svc.Done():
			// a service that was ready and has stopped since closes both
			select {
			case <-svc.Ready():
				continue
			default:
			}
			if err := svc.Err(); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrStoppedBeforeReady, svc.Name(), err)
			}
			return fmt.Errorf("%w: %s", ErrStoppedBeforeReady, svc.Name())
		}
	}
	return nil
}

// Wait blocks until all services have stopped and returns the first error.
func (a *App) Wait() error {
	a.mu.Lock()
	g := a.group
	a.mu.Unlock()
	if g == nil {
		return ErrNotRunning
	}
	err := g.Wait()
	a.log.Debug("app stopped", slog.Any("error", err))
	return err
}

// Stop cancels the context of all services. Use Wait to wait for them.
func (a *App) Stop() {
	a.cancelCtx()
}
