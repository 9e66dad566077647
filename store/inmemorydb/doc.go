/*
Package inmemorydb provides an implementation of github.com/docsbot-dev/docsbot/store's StringStorer interface
as an in-memory data store relying on a wrapping StringStorer for actual persistence.

The main use-case for the inmemorydb is to shield the real StringStorer implementation from receiving a call
for every text embedded when building an index. Cached embeddings are looked up once per document chunk
so this trades memory for fewer round trips to leveldb or the Google Cloud Datastore.

Example code:

	import (
		"github.com/docsbot-dev/docsbot/index"
		"github.com/docsbot-dev/docsbot/store/datastoredb"
		"github.com/docsbot-dev/docsbot/store/inmemorydb"
		"google.golang.org/api/option"
	)

	func main() {
		// Create your persistent storer first
		persistentStorer, err := datastoredb.New("embeddings", "docsbot", option.WithCredentialsFile(*gcloudCredentialsFile))
		if err != nil {
			log.Fatalf("Opening embeddings db failed: %s", err.Error())
		}

		// Create the inmemorydb
		cache, err := inmemorydb.New(persistentStorer)
		if err != nil {
			log.Fatalf("Creating in-memory db wrapper failed: %s", err.Error())
		}
		defer cache.Close()

		embedder := index.NewCachedEmbedder(index.NewOpenAIEmbedder(client, model), cache)
		...
	}
*/
package inmemorydb
