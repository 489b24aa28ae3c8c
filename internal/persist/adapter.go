package persist

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"parley/internal/chat"
	"parley/internal/prefs"
)

// Storage keys. The session list, the active session and the three settings
// values each round-trip under their own key.
const (
	keyChats             = "chats"
	keyActiveSession     = "activeSession"
	keyServerAddress     = "serverAddress"
	keyTemperature       = "temperature"
	keyRepetitionPenalty = "repetitionPenalty"
)

// State is everything the adapter restores at startup.
type State struct {
	Snapshot    chat.Snapshot
	ActiveID    string
	Preferences prefs.Preferences
}

// Adapter persists the session store snapshot, the active session id and
// the client preferences through a KV store. A missing or corrupt record is
// a cold start, never a fatal error; a failed write is logged and dropped.
type Adapter struct {
	kv  KV
	log zerolog.Logger
}

// NewAdapter constructs a persistence adapter over kv.
func NewAdapter(kv KV, logger zerolog.Logger) *Adapter {
	return &Adapter{kv: kv, log: logger}
}

// Load reads the persisted state once at startup. Preferences start from
// base and persisted records override it field by field. Every record
// degrades independently: an unreadable session snapshot still leaves
// preferences restorable, and vice versa.
func (a *Adapter) Load(base prefs.Preferences) State {
	state := State{Preferences: base.Clone()}

	if raw, ok := a.get(keyChats); ok {
		var snapshot chat.Snapshot
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			a.log.Warn().Err(err).Msg("session snapshot is corrupt, starting cold")
		} else {
			state.Snapshot = snapshot
		}
	}

	if raw, ok := a.get(keyActiveSession); ok {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			a.log.Warn().Err(err).Msg("active session record is corrupt, ignoring")
		} else {
			state.ActiveID = strings.TrimSpace(id)
		}
	}

	if raw, ok := a.get(keyServerAddress); ok {
		var address string
		if err := json.Unmarshal(raw, &address); err != nil {
			a.log.Warn().Err(err).Msg("server address record is corrupt, ignoring")
		} else if trimmed := strings.TrimSpace(address); trimmed != "" {
			state.Preferences.ServerAddress = trimmed
		}
	}
	if value, ok := a.loadOptionalFloat(keyTemperature); ok {
		state.Preferences.Temperature = value
	}
	if value, ok := a.loadOptionalFloat(keyRepetitionPenalty); ok {
		state.Preferences.RepetitionPenalty = value
	}

	if err := state.Preferences.Validate(); err != nil {
		a.log.Warn().Err(err).Msg("persisted preferences are out of range, using defaults")
		state.Preferences = base.Clone()
	}

	return state
}

// Commit persists the whole session snapshot. Implements chat.Committer, so
// it runs inside the store's mutation lock and writes land in mutation
// order.
func (a *Adapter) Commit(snapshot chat.Snapshot) {
	a.set(keyChats, snapshot)
}

// SaveActiveID persists the active session id; an empty id means none.
func (a *Adapter) SaveActiveID(id string) {
	a.set(keyActiveSession, strings.TrimSpace(id))
}

// SavePreferences persists the settings record. Unset generation
// parameters are stored as JSON null so a later load keeps them unset.
func (a *Adapter) SavePreferences(p prefs.Preferences) {
	a.set(keyServerAddress, strings.TrimSpace(p.ServerAddress))
	a.set(keyTemperature, p.Temperature)
	a.set(keyRepetitionPenalty, p.RepetitionPenalty)
}

func (a *Adapter) get(key string) (json.RawMessage, bool) {
	raw, ok, err := a.kv.Get(key)
	if err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("state read failed, treating as missing")
		return nil, false
	}
	return raw, ok
}

func (a *Adapter) set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("state encode failed, dropping write")
		return
	}
	if err := a.kv.Set(key, raw); err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("state write failed, dropping write")
	}
}

// loadOptionalFloat reports whether a record exists for key. A stored JSON
// null is a present record whose value is "explicitly unset".
func (a *Adapter) loadOptionalFloat(key string) (*float64, bool) {
	raw, ok := a.get(key)
	if !ok {
		return nil, false
	}
	var value *float64
	if err := json.Unmarshal(raw, &value); err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("numeric preference is corrupt, ignoring")
		return nil, false
	}
	return value, true
}
