package driving

import "github.com/custodia-labs/stagesync/internal/core/domain"

// SettingsService reads and edits persisted settings.
type SettingsService interface {
	// SyncSettings returns the orchestrator settings for the next run.
	SyncSettings() domain.SyncSettings

	// RemoteSettings returns the endpoint configuration.
	RemoteSettings() domain.RemoteSettings

	// Get returns the stored value for a known key.
	Get(key string) (any, bool)

	// Set parses value for key and persists it. Unknown keys and values of
	// the wrong type return domain.ErrInvalidInput.
	Set(key, value string) error

	// Unset removes a stored value so the default applies again.
	Unset(key string) error

	// Keys lists every known key.
	Keys() []string

	// UnknownKeys lists stored keys that no setting reads.
	UnknownKeys() []string

	// Path returns where settings are persisted.
	Path() string
}
