package docsbot

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Builder holds what's needed to build a docsbot instance
type Builder struct {
	config  *viper.Viper
	options []Option
	api     API
	closers []io.Closer
	err     error
}

// NewBot returns a new Builder used to set up a new docsbot
func NewBot(v *viper.Viper, options ...Option) (sb *Builder) {
	sb = new(Builder)
	sb.config = v
	sb.options = options
	sb.closers = make([]io.Closer, 0)

	return sb
}

// WithAPI sets the question-answering api docsbot uses
func (sb *Builder) WithAPI(api API) *Builder {
	if sb.err != nil {
		return sb
	}

	sb.api = api

	return sb
}

// WithAPIErr sets the api from a creation function returning (API, error)
func (sb *Builder) WithAPIErr(api API, err error) *Builder {
	if sb.err == nil && err != nil {
		sb.err = errors.Wrap(err, "failed to create api client")
	}

	return sb.WithAPI(api)
}

// WithCloser registers a closer to close along with docsbot
func (sb *Builder) WithCloser(closer io.Closer) *Builder {
	if sb.err != nil {
		return sb
	}

	if closer != nil {
		sb.closers = append(sb.closers, closer)
	}

	return sb
}

// Build returns the built docsbot instance. If there was an error during
// setup, the error is returned along with a nil docsbot
func (sb *Builder) Build() (b *Bot, err error) {
	if sb.err != nil {
		return nil, sb.err
	}

	b, err = New(sb.config, sb.api, sb.options...)
	if err != nil {
		return nil, err
	}

	b.closers = append(b.closers, sb.closers...)

	return b, nil
}
