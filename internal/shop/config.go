package shop

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codewandler/mbus-go/internal/store"
)

var ErrInvalidSimulation = errors.New("invalid simulation")

type (
	// Simulation describes the initial storage and all services of one run.
	// JSON is accepted as well since it is valid YAML.
	Simulation struct {
		InitialStorage []store.Stock `json:"initialStorage" yaml:"initialStorage"`
		Services       Services      `json:"services" yaml:"services"`
	}

	Services struct {
		Time      *TimeConfig      `json:"time" yaml:"time"`
		Manager   *ManagerConfig   `json:"manager" yaml:"manager"`
		Factories int              `json:"factories" yaml:"factories"`
		Sellers   int              `json:"sellers" yaml:"sellers"`
		Customers []CustomerConfig `json:"customers" yaml:"customers"`
	}

	TimeConfig struct {
		// Speed is the length of one tick in milliseconds.
		Speed    int `json:"speed" yaml:"speed"`
		Duration int `json:"duration" yaml:"duration"`
	}

	ManagerConfig struct {
		DiscountSchedule []store.DiscountSchedule `json:"discountSchedule" yaml:"discountSchedule"`
	}

	CustomerConfig struct {
		Name             string                   `json:"name" yaml:"name"`
		WishList         []string                 `json:"wishList" yaml:"wishList"`
		PurchaseSchedule []store.PurchaseSchedule `json:"purchaseSchedule" yaml:"purchaseSchedule"`
	}
)

func (t TimeConfig) TickDuration() time.Duration {
	return time.Duration(t.Speed) * time.Millisecond
}

// Parse decodes and validates a simulation.
func Parse(data []byte) (*Simulation, error) {
	var sim Simulation
	if err := yaml.Unmarshal(data, &sim); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSimulation, err)
	}
	if err := sim.Validate(); err != nil {
		return nil, err
	}
	return &sim, nil
}

// LoadFile reads and parses a simulation file.
func LoadFile(path string) (*Simulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sim, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sim, nil
}

func (s *Simulation) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidSimulation, fmt.Sprintf(format, args...))
	}

	svc := s.Services
	if svc.Time == nil {
		return invalid("services.time is required")
	}
	if svc.Time.Speed < 0 || svc.Time.Duration < 0 {
		return invalid("services.time must not be negative")
	}
	if svc.Factories < 0 || svc.Sellers < 0 {
		return invalid("number of factories and sellers must not be negative")
	}
	for i, st := range s.InitialStorage {
		if st.ShoeType == "" || st.Amount < 0 {
			return invalid("initialStorage[%d]: shoe type and a non-negative amount required", i)
		}
	}
	seen := make(map[string]bool)
	for i, c := range svc.Customers {
		if c.Name == "" {
			return invalid("customers[%d]: name required", i)
		}
		if seen[c.Name] {
			return invalid("customers[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
