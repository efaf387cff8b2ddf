package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stagesync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/stagesync/internal/core/domain"
)

func TestSettingsService_Defaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(nil))

	assert.Equal(t, domain.DefaultSyncSettings(), svc.SyncSettings())

	remote := svc.RemoteSettings()
	assert.Empty(t, remote.Endpoint)
	assert.Equal(t, domain.DefaultRateLimit, remote.RateLimit)
}

func TestSettingsService_Overrides(t *testing.T) {
	store := memory.NewConfigStore(nil)
	require.NoError(t, store.Set(KeyStageTimeout, "20m"))
	require.NoError(t, store.Set(KeyBatchTimeout, int64(90)))
	require.NoError(t, store.Set(KeyPollInterval, "500ms"))
	require.NoError(t, store.Set(KeyStallThreshold, int64(5)))
	require.NoError(t, store.Set(KeyBatchDelay, "0s"))
	require.NoError(t, store.Set(KeyStatusTimeout, "45"))

	settings := NewSettingsService(store).SyncSettings()

	assert.Equal(t, 20*time.Minute, settings.StageTimeout)
	assert.Equal(t, 90*time.Second, settings.BatchTimeout)
	assert.Equal(t, 500*time.Millisecond, settings.PollInterval)
	assert.Equal(t, 5, settings.StallThreshold)
	assert.Equal(t, time.Duration(0), settings.BatchDelay)
	assert.Equal(t, 45*time.Second, settings.StatusTimeout)
	assert.Equal(t, domain.DefaultPollTimeout, settings.PollTimeout)
}

func TestSettingsService_InvalidFallsBack(t *testing.T) {
	store := memory.NewConfigStore(nil)
	require.NoError(t, store.Set(KeyStageTimeout, "soon"))

	settings := NewSettingsService(store).SyncSettings()
	assert.Equal(t, domain.DefaultStageTimeout, settings.StageTimeout)

	require.NoError(t, store.Set(KeyStallThreshold, int64(0)))
	assert.Equal(t, domain.DefaultSyncSettings(), NewSettingsService(store).SyncSettings())
}

func TestSettingsService_RemoteSettings(t *testing.T) {
	store := memory.NewConfigStore(nil)
	require.NoError(t, store.Set(KeyRemoteEndpoint, "https://example.com/admin-ajax.php"))
	require.NoError(t, store.Set(KeyRemoteBearerToken, "secret"))
	require.NoError(t, store.Set(KeyRemoteSyncToken, "sync-nonce"))
	require.NoError(t, store.Set(KeyRemoteFilesToken, "files-nonce"))
	require.NoError(t, store.Set(KeyRemoteRateLimit, int64(2)))

	remote := NewSettingsService(store).RemoteSettings()

	assert.Equal(t, "https://example.com/admin-ajax.php", remote.Endpoint)
	assert.Equal(t, "secret", remote.BearerToken)
	assert.Equal(t, "sync-nonce", remote.SyncToken)
	assert.Equal(t, "files-nonce", remote.FilesToken)
	assert.Equal(t, 2.0, remote.RateLimit)
	assert.NoError(t, remote.Validate())
}

func TestStaticSettings(t *testing.T) {
	s := fastSettings()
	assert.Equal(t, s, StaticSettings(s).SyncSettings())
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore(nil)
	svc := NewSettingsService(store)

	require.NoError(t, svc.Set(KeyBatchDelay, "1500ms"))
	require.NoError(t, svc.Set(KeyStallThreshold, "4"))
	require.NoError(t, svc.Set(KeyRemoteRateLimit, "0.5"))
	require.NoError(t, svc.Set(KeyRemoteEndpoint, "https://example.com/wp-admin/admin-ajax.php"))
	require.NoError(t, svc.Set(KeyRemoteSyncToken, "abc123"))

	v, ok := store.Get(KeyBatchDelay)
	require.True(t, ok)
	assert.Equal(t, "1.5s", v)
	v, _ = store.Get(KeyStallThreshold)
	assert.Equal(t, int64(4), v)
	v, _ = store.Get(KeyRemoteRateLimit)
	assert.Equal(t, 0.5, v)

	settings := svc.SyncSettings()
	assert.Equal(t, 1500*time.Millisecond, settings.BatchDelay)
	assert.Equal(t, 4, settings.StallThreshold)
	assert.Equal(t, 0.5, svc.RemoteSettings().RateLimit)
}

func TestSettingsService_SetRejectsInvalid(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(nil))

	tests := []struct {
		key   string
		value string
	}{
		{"sync.unknown", "1"},
		{KeyStageTimeout, "ten minutes"},
		{KeyStageTimeout, "-1s"},
		{KeyStallThreshold, "0"},
		{KeyPollMaxFailures, "three"},
		{KeyRemoteRateLimit, "-2"},
		{KeyRemoteEndpoint, "example.com"},
		{KeyRemoteEndpoint, "ftp://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			assert.ErrorIs(t, svc.Set(tt.key, tt.value), domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Unset(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{KeyStallThreshold: int64(9)})
	svc := NewSettingsService(store)

	require.NoError(t, svc.Unset(KeyStallThreshold))

	_, ok := svc.Get(KeyStallThreshold)
	assert.False(t, ok)
	assert.Equal(t, domain.DefaultStallThreshold, svc.SyncSettings().StallThreshold)
	assert.ErrorIs(t, svc.Unset("nope"), domain.ErrInvalidInput)
}

func TestSettingsService_KeysAndPath(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(nil))

	keys := svc.Keys()
	assert.Len(t, keys, 13)
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, KeyRemoteEndpoint)
	assert.Equal(t, ":memory:", svc.Path())
}

func TestSettingsService_UnknownKeys(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(map[string]any{
		KeyRemoteEndpoint: "https://example.com",
		"remote.endpiont": "https://typo.example.com",
		"sync.extra":      int64(1),
	}))

	assert.Equal(t, []string{"remote.endpiont", "sync.extra"}, svc.UnknownKeys())
}

func TestIsSecret(t *testing.T) {
	assert.True(t, IsSecret(KeyRemoteBearerToken))
	assert.True(t, IsSecret(KeyRemoteFilesToken))
	assert.False(t, IsSecret(KeyRemoteEndpoint))
	assert.False(t, IsSecret("unknown"))
}
