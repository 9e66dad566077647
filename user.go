package docsbot

import (
	"context"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

// selfIdentifier is implemented by any value that has the AuthTestContext method. It is
// used to find "our" own identity.
//
// slack.Client implements this interface
type selfIdentifier interface {
	AuthTestContext(ctx context.Context) (response *slack.AuthTestResponse, err error)
}

// cacheSelfIdentity gets "our" identity and keeps the selfID and selfName to avoid having to look it up every time
func (b *Bot) cacheSelfIdentity(ctx context.Context) (err error) {
	resp, err := b.selfIdentifier.AuthTestContext(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to identify docsbot with slack")
	}

	b.selfID = resp.UserID
	b.selfName = resp.User

	b.log.Debugf("Caching self id [%s] and self name [%s]", b.selfID, b.selfName)

	return nil
}
