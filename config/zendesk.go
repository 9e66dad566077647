package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Zendesk responder keys
const (
	ZendeskEmailKey           = "zendesk.email"           // Email of the agent the responder acts as, string
	ZendeskPasswordKey        = "zendesk.password"        // Password of the agent, string
	ZendeskAPITokenKey        = "zendesk.apiToken"        // Api token of the agent, used instead of the password when set, string
	ZendeskSubdomainKey       = "zendesk.subdomain"       // Zendesk subdomain (<subdomain>.zendesk.com), string
	ZendeskBaseURLKey         = "zendesk.baseURL"         // Zendesk base url, overrides the subdomain when set, string
	ZendeskApplicationKey     = "zendesk.application"     // Application the responder identifies as with the api, string
	ZendeskFetchIntervalKey   = "zendesk.fetchInterval"   // Interval between two searches for new tickets, duration
	ZendeskMaxRequestsKey     = "zendesk.maxRequests"     // Number of tickets answered concurrently, int
	ZendeskRequestIntervalKey = "zendesk.requestInterval" // Pause between two batches of tickets, duration
	ZendeskIntroKey           = "zendesk.intro"           // Text prepended to every answer, string
	ZendeskSignatureKey       = "zendesk.signature"       // Text appended to every answer, string
	ZendeskErrorAnswerKey     = "zendesk.errorAnswer"     // Answer posted when the api fails, string
	ZendeskIncludeTagsKey     = "zendesk.includeTags"     // Tags of the tickets to answer, any of them, string list
	ZendeskExcludeTagsKey     = "zendesk.excludeTags"     // Tags of the tickets to skip, string list
	ZendeskTestTicketsKey     = "zendesk.testTickets"     // Only answer tickets tagged bottest, boolean
	ZendeskTestAPIKey         = "zendesk.testAPI"         // Answer with a placeholder instead of calling the api, boolean
)

// ZendeskTestTag is the tag of the tickets answered in test ticket mode
const ZendeskTestTag = "bottest"

const (
	defaultZendeskApplication     = "Zendesk"
	defaultZendeskFetchInterval   = 600 * time.Second
	defaultZendeskMaxRequests     = 5
	defaultZendeskRequestInterval = 30 * time.Second
	defaultZendeskIntro           = "🤖 This is an automated answer from WandBot, our documentation assistant. A support engineer will follow up if it doesn't solve your problem.\n\n"
	defaultZendeskSignature       = "-WandBot 🤖"
	defaultZendeskErrorAnswer     = "Something went wrong!"
)

var (
	defaultZendeskIncludeTags = []string{"forum", "zopim_offline_message"}
	defaultZendeskExcludeTags = []string{"answered_by_bot", "zopim_chat", "picked_up_by_bot"}
)

// ZendeskConfig holds the settings of the zendesk responder
type ZendeskConfig struct {
	Email           string `validate:"required"`
	Password        string `validate:"required_without=APIToken"`
	APIToken        string
	Subdomain       string        `validate:"required_without=BaseURL"`
	BaseURL         string        `validate:"omitempty,url"`
	Language        string        `validate:"oneof=en ja"`
	Application     string        `validate:"required"`
	FetchInterval   time.Duration `validate:"gte=1s"`
	MaxRequests     int           `validate:"gt=0"`
	RequestInterval time.Duration `validate:"gte=0"`
	Intro           string
	Signature       string
	ErrorAnswer     string   `validate:"required"`
	IncludeTags     []string `validate:"min=1"`
	ExcludeTags     []string
	TestAPI         bool
}

// LayerZendeskConfigWithDefaults sets the zendesk responder defaults on v and binds the
// environment variables holding its credentials
func LayerZendeskConfigWithDefaults(v *viper.Viper) (lv *viper.Viper) {
	v.SetDefault(ZendeskApplicationKey, defaultZendeskApplication)
	v.SetDefault(ZendeskFetchIntervalKey, defaultZendeskFetchInterval)
	v.SetDefault(ZendeskMaxRequestsKey, defaultZendeskMaxRequests)
	v.SetDefault(ZendeskRequestIntervalKey, defaultZendeskRequestInterval)
	v.SetDefault(ZendeskIntroKey, defaultZendeskIntro)
	v.SetDefault(ZendeskSignatureKey, defaultZendeskSignature)
	v.SetDefault(ZendeskErrorAnswerKey, defaultZendeskErrorAnswer)
	v.SetDefault(ZendeskIncludeTagsKey, defaultZendeskIncludeTags)
	v.SetDefault(ZendeskExcludeTagsKey, defaultZendeskExcludeTags)
	v.SetDefault(ZendeskTestTicketsKey, false)
	v.SetDefault(ZendeskTestAPIKey, false)

	_ = v.BindEnv(ZendeskEmailKey, "ZENDESK_EMAIL")
	_ = v.BindEnv(ZendeskPasswordKey, "ZENDESK_PASSWORD")
	_ = v.BindEnv(ZendeskAPITokenKey, "ZENDESK_API_TOKEN")
	_ = v.BindEnv(ZendeskSubdomainKey, "ZENDESK_SUBDOMAIN")
	_ = v.BindEnv(ZendeskTestTicketsKey, "ZENDESK_TEST_TICKET_MODE")
	_ = v.BindEnv(ZendeskTestAPIKey, "ZENDESK_TEST_API_MODE")

	return v
}

// GetZendeskConfig returns the validated zendesk responder configuration. In test ticket mode,
// only tickets tagged bottest are answered
func GetZendeskConfig(v *viper.Viper) (zc *ZendeskConfig, err error) {
	testTickets, err := cast.ToBoolE(v.Get(ZendeskTestTicketsKey))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", ZendeskTestTicketsKey)
	}

	testAPI, err := cast.ToBoolE(v.Get(ZendeskTestAPIKey))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", ZendeskTestAPIKey)
	}

	fetchInterval, err := cast.ToDurationE(v.Get(ZendeskFetchIntervalKey))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", ZendeskFetchIntervalKey)
	}

	requestInterval, err := cast.ToDurationE(v.Get(ZendeskRequestIntervalKey))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", ZendeskRequestIntervalKey)
	}

	zc = &ZendeskConfig{
		Email:           v.GetString(ZendeskEmailKey),
		Password:        v.GetString(ZendeskPasswordKey),
		APIToken:        v.GetString(ZendeskAPITokenKey),
		Subdomain:       v.GetString(ZendeskSubdomainKey),
		BaseURL:         v.GetString(ZendeskBaseURLKey),
		Language:        v.GetString(LanguageKey),
		Application:     v.GetString(ZendeskApplicationKey),
		FetchInterval:   fetchInterval,
		MaxRequests:     v.GetInt(ZendeskMaxRequestsKey),
		RequestInterval: requestInterval,
		Intro:           v.GetString(ZendeskIntroKey),
		Signature:       v.GetString(ZendeskSignatureKey),
		ErrorAnswer:     v.GetString(ZendeskErrorAnswerKey),
		IncludeTags:     v.GetStringSlice(ZendeskIncludeTagsKey),
		ExcludeTags:     v.GetStringSlice(ZendeskExcludeTagsKey),
		TestAPI:         testAPI,
	}

	if testTickets {
		zc.IncludeTags = []string{ZendeskTestTag}
	}

	if zc.BaseURL == "" && zc.Subdomain != "" {
		zc.BaseURL = fmt.Sprintf("https://%s.zendesk.com", zc.Subdomain)
	}

	if err = validator.New().Struct(zc); err != nil {
		return nil, errors.Wrap(err, "invalid zendesk configuration")
	}

	return zc, nil
}
