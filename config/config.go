// Package config holds the docsbot configuration keys, their defaults and
// helpers to resolve the language profile the bot runs with
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	DebugKey       = "debug"       // Debug mode, boolean
	LogLevelKey    = "logLevel"    // Log level (debug, info, warn, error), string
	LanguageKey    = "language"    // Operating language of the bot (en or ja), string
	APIURLKey      = "apiURL"      // Base url of the question-answering api, string
	APITimeoutKey  = "apiTimeout"  // Timeout of calls to the question-answering api, duration
	MetricsAddrKey = "metricsAddr" // Listen address of the metrics and health endpoints. Empty disables them, string
	ProfilesKey    = "profiles"    // Language profiles, keyed by language code

	// Advanced keys
	MessageProcessingPartitionCount       = "advanced.messageProcessingPartitionCount"       // Number of event processing partitions, must be a power of two
	MessageProcessingBufferedMessageCount = "advanced.messageProcessingBufferedMessageCount" // Number of buffered events per partition
)

const (
	// English is the english language code
	English = "en"
	// Japanese is the japanese language code
	Japanese = "ja"
)

// Profile keys, relative to profiles.<language>
const (
	AppTokenKey         = "appToken"
	BotTokenKey         = "botToken"
	ApplicationKey      = "application"
	IntroMessageKey     = "introMessage"
	OutroMessageKey     = "outroMessage"
	ErrorMessageKey     = "errorMessage"
	FallbackWarningKey  = "fallbackWarning"
	IncludeSourcesKey   = "includeSources"
	PreferredModelKey   = "preferredModel"
	BroadcastAnswersKey = "broadcastAnswers"
)

const (
	defaultLogLevel                              = "info"
	defaultLanguage                              = English
	defaultAPIURL                                = "http://localhost:8000"
	defaultAPITimeout                            = 30 * time.Second
	defaultMetricsAddr                           = ":9090"
	defaultMessageProcessingPartitionCount       = 16
	defaultMessageProcessingBufferedMessageCount = 10
	defaultPreferredModel                        = "gpt-4"
)

var envBindings = map[string][]string{
	LogLevelKey:                          {"LOG_LEVEL"},
	APIURLKey:                            {"WANDBOT_API_URL"},
	profileKey(English, AppTokenKey):     {"SLACK_EN_APP_TOKEN"},
	profileKey(English, BotTokenKey):     {"SLACK_EN_BOT_TOKEN"},
	profileKey(English, ApplicationKey):  {"SLACK_EN_APPLICATION"},
	profileKey(Japanese, AppTokenKey):    {"SLACK_JA_APP_TOKEN"},
	profileKey(Japanese, BotTokenKey):    {"SLACK_JA_BOT_TOKEN"},
	profileKey(Japanese, ApplicationKey): {"SLACK_JA_APPLICATION"},
}

// Profile holds the language specific settings of the bot: its slack tokens,
// the messages it sends and the application it identifies as with the api
type Profile struct {
	Language         string `validate:"oneof=en ja"`
	AppToken         string `validate:"required"`
	BotToken         string `validate:"required"`
	Application      string `validate:"required"`
	IntroMessage     string
	OutroMessage     string
	ErrorMessage     string `validate:"required"`
	FallbackWarning  string
	IncludeSources   bool
	PreferredModel   string
	BroadcastAnswers bool
}

// NewViperWithDefaults creates a new viper instance with all default values set
func NewViperWithDefaults() (v *viper.Viper) {
	v = viper.New()
	return LayerConfigWithDefaults(v)
}

// LayerConfigWithDefaults sets the defaults on the given viper instance and binds
// the environment variables used to provide secrets. Values already set remain
// in place as defaults have the lowest precedence
func LayerConfigWithDefaults(v *viper.Viper) (lv *viper.Viper) {
	v.SetDefault(DebugKey, false)
	v.SetDefault(LogLevelKey, defaultLogLevel)
	v.SetDefault(LanguageKey, defaultLanguage)
	v.SetDefault(APIURLKey, defaultAPIURL)
	v.SetDefault(APITimeoutKey, defaultAPITimeout)
	v.SetDefault(MetricsAddrKey, defaultMetricsAddr)
	v.SetDefault(MessageProcessingPartitionCount, defaultMessageProcessingPartitionCount)
	v.SetDefault(MessageProcessingBufferedMessageCount, defaultMessageProcessingBufferedMessageCount)

	for lang, defaults := range profileDefaults {
		for k, val := range defaults {
			v.SetDefault(profileKey(lang, k), val)
		}
	}

	v.SetEnvPrefix("docsbot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, envs := range envBindings {
		input := append([]string{key}, envs...)
		// BindEnv only fails when no key is given
		_ = v.BindEnv(input...)
	}

	return v
}

// GetLanguageProfile resolves the profile for the given language. Explicit values (config file or environment)
// take precedence over the language defaults. The profile is validated before being returned
func GetLanguageProfile(v *viper.Viper, lang string) (p *Profile, err error) {
	if p, err = resolveProfile(v, lang); err != nil {
		return nil, err
	}

	if err = validator.New().Struct(p); err != nil {
		return nil, errors.Wrapf(err, "invalid profile for language [%s]", lang)
	}

	return p, nil
}

// GetMessagesProfile resolves the profile for the given language like GetLanguageProfile but without
// requiring slack tokens. It serves commands that format answers without connecting to slack
func GetMessagesProfile(v *viper.Viper, lang string) (p *Profile, err error) {
	if p, err = resolveProfile(v, lang); err != nil {
		return nil, err
	}

	if err = validator.New().StructExcept(p, "AppToken", "BotToken"); err != nil {
		return nil, errors.Wrapf(err, "invalid profile for language [%s]", lang)
	}

	return p, nil
}

func resolveProfile(v *viper.Viper, lang string) (p *Profile, err error) {
	if _, ok := profileDefaults[lang]; !ok {
		return nil, fmt.Errorf("Unsupported language [%s], must be one of [%s, %s]", lang, English, Japanese)
	}

	includeSources, err := cast.ToBoolE(v.Get(profileKey(lang, IncludeSourcesKey)))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", profileKey(lang, IncludeSourcesKey))
	}

	broadcastAnswers, err := cast.ToBoolE(v.Get(profileKey(lang, BroadcastAnswersKey)))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", profileKey(lang, BroadcastAnswersKey))
	}

	return &Profile{
		Language:         lang,
		AppToken:         v.GetString(profileKey(lang, AppTokenKey)),
		BotToken:         v.GetString(profileKey(lang, BotTokenKey)),
		Application:      v.GetString(profileKey(lang, ApplicationKey)),
		IntroMessage:     v.GetString(profileKey(lang, IntroMessageKey)),
		OutroMessage:     v.GetString(profileKey(lang, OutroMessageKey)),
		ErrorMessage:     v.GetString(profileKey(lang, ErrorMessageKey)),
		FallbackWarning:  v.GetString(profileKey(lang, FallbackWarningKey)),
		IncludeSources:   includeSources,
		PreferredModel:   v.GetString(profileKey(lang, PreferredModelKey)),
		BroadcastAnswers: broadcastAnswers,
	}, nil
}

// profileKey returns the full configuration key of a profile setting
func profileKey(lang string, key string) string {
	return fmt.Sprintf("%s.%s.%s", ProfilesKey, lang, key)
}
