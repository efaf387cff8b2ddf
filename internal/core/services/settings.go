package services

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/core/ports/driven"
	"github.com/custodia-labs/stagesync/internal/core/ports/driving"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// Configuration keys.
const (
	KeyRemoteEndpoint    = "remote.endpoint"
	KeyRemoteBearerToken = "remote.bearer_token"
	KeyRemoteSyncToken   = "remote.tokens.sync"
	KeyRemoteFilesToken  = "remote.tokens.files"
	KeyRemoteRateLimit   = "remote.rate_limit"

	KeyStatusTimeout   = "sync.status_timeout"
	KeyStageTimeout    = "sync.stage_timeout"
	KeyBatchTimeout    = "sync.batch_timeout"
	KeyPollInterval    = "sync.poll_interval"
	KeyPollTimeout     = "sync.poll_timeout"
	KeyPollMaxFailures = "sync.poll_max_failures"
	KeyStallThreshold  = "sync.stall_threshold"
	KeyBatchDelay      = "sync.batch_delay"
)

// keyKind is how a key's value is parsed and stored.
type keyKind int

const (
	kindString keyKind = iota
	kindSecret
	kindURL
	kindDuration
	kindInt
	kindFloat
)

// knownKeys lists every settable key.
var knownKeys = map[string]keyKind{
	KeyRemoteEndpoint:    kindURL,
	KeyRemoteBearerToken: kindSecret,
	KeyRemoteSyncToken:   kindSecret,
	KeyRemoteFilesToken:  kindSecret,
	KeyRemoteRateLimit:   kindFloat,
	KeyStatusTimeout:     kindDuration,
	KeyStageTimeout:      kindDuration,
	KeyBatchTimeout:      kindDuration,
	KeyPollInterval:      kindDuration,
	KeyPollTimeout:       kindDuration,
	KeyPollMaxFailures:   kindInt,
	KeyStallThreshold:    kindInt,
	KeyBatchDelay:        kindDuration,
}

// IsSecret reports whether key holds a credential that should be masked
// when displayed.
func IsSecret(key string) bool {
	return knownKeys[key] == kindSecret
}

// SettingsProvider supplies the settings for the next run.
type SettingsProvider interface {
	SyncSettings() domain.SyncSettings
}

// StaticSettings is a SettingsProvider that always returns the same values.
type StaticSettings domain.SyncSettings

// SyncSettings implements SettingsProvider.
func (s StaticSettings) SyncSettings() domain.SyncSettings {
	return domain.SyncSettings(s)
}

// SettingsService reads settings from the config store. Values are read on
// every call, so a reloaded config file applies to the next run.
type SettingsService struct {
	store driven.ConfigStore
}

var _ driving.SettingsService = (*SettingsService)(nil)

// NewSettingsService creates a settings service backed by store.
func NewSettingsService(store driven.ConfigStore) *SettingsService {
	return &SettingsService{store: store}
}

// SyncSettings returns orchestrator settings, falling back to defaults for
// missing or invalid values.
func (s *SettingsService) SyncSettings() domain.SyncSettings {
	d := domain.DefaultSyncSettings()
	settings := domain.SyncSettings{
		StatusTimeout:   s.duration(KeyStatusTimeout, d.StatusTimeout),
		StageTimeout:    s.duration(KeyStageTimeout, d.StageTimeout),
		BatchTimeout:    s.duration(KeyBatchTimeout, d.BatchTimeout),
		PollInterval:    s.duration(KeyPollInterval, d.PollInterval),
		PollTimeout:     s.duration(KeyPollTimeout, d.PollTimeout),
		PollMaxFailures: s.integer(KeyPollMaxFailures, d.PollMaxFailures),
		StallThreshold:  s.integer(KeyStallThreshold, d.StallThreshold),
		BatchDelay:      s.duration(KeyBatchDelay, d.BatchDelay),
	}
	if err := settings.Validate(); err != nil {
		logger.Warn("ignoring invalid sync settings: %v", err)
		return d
	}
	return settings
}

// RemoteSettings returns the endpoint configuration.
func (s *SettingsService) RemoteSettings() domain.RemoteSettings {
	rate := domain.DefaultRateLimit
	if v, ok := s.store.Get(KeyRemoteRateLimit); ok {
		switch n := v.(type) {
		case float64:
			rate = n
		case int64:
			rate = float64(n)
		case int:
			rate = float64(n)
		}
	}
	return domain.RemoteSettings{
		Endpoint:    s.store.GetString(KeyRemoteEndpoint),
		BearerToken: s.store.GetString(KeyRemoteBearerToken),
		SyncToken:   s.store.GetString(KeyRemoteSyncToken),
		FilesToken:  s.store.GetString(KeyRemoteFilesToken),
		RateLimit:   rate,
	}
}

// duration reads a Go duration string ("30s", "5m"). Bare integers are
// taken as seconds.
func (s *SettingsService) duration(key string, fallback time.Duration) time.Duration {
	v, ok := s.store.Get(key)
	if !ok {
		return fallback
	}
	switch val := v.(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if n, err := strconv.Atoi(val); err == nil {
			return time.Duration(n) * time.Second
		}
	case int64:
		return time.Duration(val) * time.Second
	case int:
		return time.Duration(val) * time.Second
	}
	logger.Warn("invalid duration for %s: %v", key, v)
	return fallback
}

// integer reads an integer value.
func (s *SettingsService) integer(key string, fallback int) int {
	if _, ok := s.store.Get(key); !ok {
		return fallback
	}
	return s.store.GetInt(key)
}

// Get returns the stored value for key.
func (s *SettingsService) Get(key string) (any, bool) {
	return s.store.Get(key)
}

// Set validates value against the key's type and persists it. Durations
// are stored as strings, counts as integers.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var stored any
	switch kind {
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("%w: %s must be a duration such as 30s or 5m", domain.ErrInvalidInput, key)
		}
		stored = d.String()
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		stored = int64(n)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		stored = f
	case kindURL:
		u, err := url.Parse(value)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%w: %s must be an http(s) URL", domain.ErrInvalidInput, key)
		}
		stored = value
	default:
		stored = value
	}

	if err := s.store.Set(key, stored); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	logger.Debug("setting %s updated", key)
	return nil
}

// Unset removes key so its default applies.
func (s *SettingsService) Unset(key string) error {
	if _, ok := knownKeys[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.store.Delete(key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Keys returns every known key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnknownKeys returns stored keys that are not known settings, usually
// typos in a hand-edited file.
func (s *SettingsService) UnknownKeys() []string {
	var unknown []string
	for _, k := range s.store.Keys() {
		if _, ok := knownKeys[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	return unknown
}

// Path returns the config file location.
func (s *SettingsService) Path() string {
	return s.store.Path()
}
