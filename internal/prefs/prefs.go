// Package prefs holds the client preferences record: the completion
// endpoint address and the optional generation parameters forwarded to it.
package prefs

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	// DefaultServerAddress is the well-known local completion endpoint.
	DefaultServerAddress = "http://127.0.0.1:8080"

	TemperatureMin       = 0.0
	TemperatureMax       = 2.0
	RepetitionPenaltyMin = 0.1
	RepetitionPenaltyMax = 2.0
)

var (
	// ErrInvalidPreferences indicates an out-of-range or malformed value.
	ErrInvalidPreferences = errors.New("invalid preferences")
)

// Preferences is the small persisted client-settings record. Nil generation
// parameters are unset and are omitted from completion requests so the
// service applies its own defaults.
type Preferences struct {
	ServerAddress     string
	Temperature       *float64
	RepetitionPenalty *float64
}

// Default returns the preferences used before any settings are saved.
func Default() Preferences {
	return Preferences{ServerAddress: DefaultServerAddress}
}

// Validate checks the address and the documented generation ranges.
func (p Preferences) Validate() error {
	if strings.TrimSpace(p.ServerAddress) == "" {
		return fmt.Errorf("%w: server address is required", ErrInvalidPreferences)
	}
	if p.Temperature != nil {
		if *p.Temperature < TemperatureMin || *p.Temperature > TemperatureMax {
			return fmt.Errorf("%w: temperature %.2f outside [%.1f, %.1f]", ErrInvalidPreferences, *p.Temperature, TemperatureMin, TemperatureMax)
		}
	}
	if p.RepetitionPenalty != nil {
		if *p.RepetitionPenalty < RepetitionPenaltyMin || *p.RepetitionPenalty > RepetitionPenaltyMax {
			return fmt.Errorf("%w: repetition penalty %.2f outside [%.1f, %.1f]", ErrInvalidPreferences, *p.RepetitionPenalty, RepetitionPenaltyMin, RepetitionPenaltyMax)
		}
	}
	return nil
}

// Clone returns a copy that shares no pointers with the original.
func (p Preferences) Clone() Preferences {
	copied := p
	if p.Temperature != nil {
		value := *p.Temperature
		copied.Temperature = &value
	}
	if p.RepetitionPenalty != nil {
		value := *p.RepetitionPenalty
		copied.RepetitionPenalty = &value
	}
	return copied
}

// Store is a mutable preferences holder shared between the settings surface
// and in-flight completion requests.
type Store struct {
	mu      sync.RWMutex
	current Preferences
}

// NewStore constructs a preferences holder seeded with initial values.
func NewStore(initial Preferences) *Store {
	return &Store{current: initial.Clone()}
}

// Current returns a copy of the active preferences.
func (s *Store) Current() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update validates and replaces the active preferences.
func (s *Store) Update(p Preferences) error {
	p.ServerAddress = strings.TrimSpace(p.ServerAddress)
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = p.Clone()
	return nil
}
