/*
Package datastoredb provides an implementation of github.com/docsbot-dev/docsbot/store's StringStorer interface
backed by the Google Cloud Datastore. docsbot uses it to share its embedding cache between instances.

Requirements for the Google Cloud Datastore integration:
  - A valid project id with datastore mode enabled
  - Google Cloud Credentials (typically in the form of a json file with credentials from https://console.cloud.google.com/apis/credentials/serviceaccountkey)

Example code:

	import (
		"github.com/docsbot-dev/docsbot/store/datastoredb"
		"google.golang.org/api/option"
	)

	func main() {
		// The first argument is this instance's namespace (the datastore kind)
		// The second argument is the gcloud project id which is what you'll have created with your gcloud service account
		// The third argument are client options which are most useful for providing credentials either in the form of a pre-parsed json file or
		// most commonly, the path to a json credentials file
		embeddingsStorer, err := datastoredb.New("embeddings", "docsbot", option.WithCredentialsFile(*gcloudCredentialsFile))
		if err != nil {
			log.Fatalf("Opening embeddings db failed: %s", err.Error())
		}
		defer embeddingsStorer.Close()

		...
	}
*/
package datastoredb
