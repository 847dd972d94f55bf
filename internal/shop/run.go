package shop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codewandler/mbus-go/core/actor"
	"github.com/codewandler/mbus-go/core/app"
	"github.com/codewandler/mbus-go/core/bus"
	"github.com/codewandler/mbus-go/internal/store"
)

type Options struct {
	Logger       *slog.Logger
	BusMetrics   bus.Metrics
	ActorMetrics actor.Metrics
}

// Run loads the initial storage, runs every service of sim until the clock
// has finished and returns the store. The clock starts only once all other
// services are subscribed.
func Run(ctx context.Context, sim *Simulation, opts Options) (*store.Store, error) {
	if err := sim.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	st := store.New()
	st.Load(sim.InitialStorage)

	a := app.New(app.Config{
		Context: ctx,
		Log:     opts.Logger,
		Bus:     app.BusConfig{Metrics: opts.BusMetrics},
		Actor:   app.ActorConfig{Metrics: opts.ActorMetrics},
	})

	svc := sim.Services
	clock := NewClock(svc.Time.TickDuration(), svc.Time.Duration, a.WaitReady)
	a.Spawn("clock", clock.Handlers()...)

	for _, c := range svc.Customers {
		cust := NewCustomer(c.Name, c.PurchaseSchedule, c.WishList)
		a.Spawn(cust.Name(), cust.Handlers()...)
	}
	for i := range svc.Sellers {
		s := NewSeller(fmt.Sprintf("Seller %d", i+1), i+1, st)
		a.Spawn(s.Name(), s.Handlers()...)
	}
	if svc.Manager != nil {
		m := NewManager(st, svc.Manager.DiscountSchedule)
		a.Spawn(m.Name(), m.Handlers()...)
	}
	for i := range svc.Factories {
		f := NewFactory(fmt.Sprintf("Factory %d", i+1))
		a.Spawn(f.Name(), f.Handlers()...)
	}

	opts.Logger.Info("simulation starting",
		slog.Int("duration", svc.Time.Duration),
		slog.Int("services", len(a.Services())),
	)

	if err := a.Run(); err != nil {
		return st, err
	}
	if err := a.Wait(); err != nil {
		return st, fmt.Errorf("simulation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}

	opts.Logger.Info("simulation finished", slog.Int("receipts", len(st.Receipts())))
	return st, nil
}
