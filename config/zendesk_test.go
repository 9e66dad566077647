package config_test

import (
	"testing"
	"time"

	"github.com/docsbot-dev/docsbot/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newZendeskViper(t *testing.T) *viper.Viper {
	t.Setenv("ZENDESK_EMAIL", "agent@example.com")
	t.Setenv("ZENDESK_PASSWORD", "secret")
	t.Setenv("ZENDESK_API_TOKEN", "")
	t.Setenv("ZENDESK_SUBDOMAIN", "wandb")
	t.Setenv("ZENDESK_TEST_TICKET_MODE", "")
	t.Setenv("ZENDESK_TEST_API_MODE", "")

	return config.LayerZendeskConfigWithDefaults(config.NewViperWithDefaults())
}

func TestGetZendeskConfigWithDefaults(t *testing.T) {
	zc, err := config.GetZendeskConfig(newZendeskViper(t))
	require.NoError(t, err)

	assert.Equal(t, "agent@example.com", zc.Email)
	assert.Equal(t, "secret", zc.Password)
	assert.Equal(t, "https://wandb.zendesk.com", zc.BaseURL)
	assert.Equal(t, "en", zc.Language)
	assert.Equal(t, "Zendesk", zc.Application)
	assert.Equal(t, 600*time.Second, zc.FetchInterval)
	assert.Equal(t, 5, zc.MaxRequests)
	assert.Equal(t, 30*time.Second, zc.RequestInterval)
	assert.Equal(t, "-WandBot 🤖", zc.Signature)
	assert.Equal(t, "Something went wrong!", zc.ErrorAnswer)
	assert.Equal(t, []string{"forum", "zopim_offline_message"}, zc.IncludeTags)
	assert.Equal(t, []string{"answered_by_bot", "zopim_chat", "picked_up_by_bot"}, zc.ExcludeTags)
	assert.False(t, zc.TestAPI)
}

func TestGetZendeskConfigInTestModes(t *testing.T) {
	v := newZendeskViper(t)
	t.Setenv("ZENDESK_TEST_TICKET_MODE", "True")
	t.Setenv("ZENDESK_TEST_API_MODE", "True")

	zc, err := config.GetZendeskConfig(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"bottest"}, zc.IncludeTags)
	assert.True(t, zc.TestAPI)
}

func TestGetZendeskConfigWithOverrides(t *testing.T) {
	v := newZendeskViper(t)
	t.Setenv("ZENDESK_PASSWORD", "")
	t.Setenv("ZENDESK_API_TOKEN", "tok")
	v.Set(config.ZendeskBaseURLKey, "http://localhost:8080")
	v.Set(config.ZendeskFetchIntervalKey, "2m")
	v.Set(config.ZendeskIncludeTagsKey, "forum")

	zc, err := config.GetZendeskConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "tok", zc.APIToken)
	assert.Equal(t, "http://localhost:8080", zc.BaseURL)
	assert.Equal(t, 2*time.Minute, zc.FetchInterval)
	assert.Equal(t, []string{"forum"}, zc.IncludeTags)
}

func TestGetZendeskConfigWithInvalidValues(t *testing.T) {
	tests := map[string]struct {
		key           string
		value         interface{}
		expectedError string
	}{
		"NoEmail":               {key: config.ZendeskEmailKey, value: "", expectedError: "Email"},
		"NoPasswordNorToken":    {key: config.ZendeskPasswordKey, value: "", expectedError: "Password"},
		"IntervalTooShort":      {key: config.ZendeskFetchIntervalKey, value: "500ms", expectedError: "FetchInterval"},
		"IntervalNotADuration":  {key: config.ZendeskFetchIntervalKey, value: "often", expectedError: "zendesk.fetchInterval"},
		"NoConcurrentRequests":  {key: config.ZendeskMaxRequestsKey, value: 0, expectedError: "MaxRequests"},
		"NoTags":                {key: config.ZendeskIncludeTagsKey, value: []string{}, expectedError: "IncludeTags"},
		"InvalidTestTicketMode": {key: config.ZendeskTestTicketsKey, value: "sometimes", expectedError: "zendesk.testTickets"},
		"InvalidBaseURL":        {key: config.ZendeskBaseURLKey, value: "not a url", expectedError: "BaseURL"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v := newZendeskViper(t)
			v.Set(tc.key, tc.value)

			_, err := config.GetZendeskConfig(v)

			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.expectedError)
			}
		})
	}
}
