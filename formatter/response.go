package formatter

import (
	"strings"

	"github.com/docsbot-dev/docsbot/apiclient"
	"github.com/docsbot-dev/docsbot/chat"
	"github.com/docsbot-dev/docsbot/config"
)

// Template variables available to the fallback warning
const (
	ModelVar          = "model"
	PreferredModelVar = "preferredModel"
)

// Config holds what shapes a formatted response
type Config struct {
	// IncludeSources adds a references section listing the sources of the answer
	IncludeSources bool

	// FallbackWarning is prepended to answers generated by a model outside of the PreferredModel family
	FallbackWarning string

	// PreferredModel is the model family expected to generate answers. Empty disables the fallback warning
	PreferredModel string

	// ErrorMessage is the text used when there is no response to format
	ErrorMessage string
}

// NewConfig returns the formatting configuration of a language profile
func NewConfig(p *config.Profile) Config {
	return Config{
		IncludeSources:  p.IncludeSources,
		FallbackWarning: p.FallbackWarning,
		PreferredModel:  p.PreferredModel,
		ErrorMessage:    p.ErrorMessage,
	}
}

// FormatResponse renders an api response and optional outro to a single mrkdwn string. A nil
// response renders as the configured error message
func FormatResponse(cfg Config, resp *apiclient.QueryResponse, outro string) string {
	if resp == nil {
		return ToMrkdwn(cfg.ErrorMessage)
	}

	var b strings.Builder

	if cfg.PreferredModel != "" && !strings.Contains(resp.Model, cfg.PreferredModel) {
		b.WriteString(chat.PartialFormat(cfg.FallbackWarning, map[string]string{ModelVar: resp.Model, PreferredModelVar: cfg.PreferredModel}))
	}

	b.WriteString(resp.Answer)

	if sources := dedupSources(resp.Sources); cfg.IncludeSources && len(sources) > 0 {
		b.WriteString("\n\n*References*\n\n>")
		b.WriteString(strings.Join(sources, "\n> "))
		b.WriteString("\n\n")
	}

	if outro != "" {
		b.WriteString("\n\n")
		b.WriteString(outro)
	}

	return ToMrkdwn(b.String())
}

// dedupSources splits newline separated sources and drops blanks and duplicates, keeping the first occurrence order
func dedupSources(sources string) (deduped []string) {
	seen := make(map[string]bool)
	deduped = make([]string, 0)

	for _, s := range strings.Split(sources, "\n") {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}

		seen[s] = true
		deduped = append(deduped, s)
	}

	return deduped
}
