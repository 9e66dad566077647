/*
Package docsbot provides a slack bot answering documentation questions with a question-answering api.

Users mention docsbot to get a menu of what it can do. Asking docsbot sends the message that started
the conversation to the api along with the history of the thread and replies with the formatted answer.
Answers get :thumbsup: and :thumbsdown: reactions so that users can rate them. Reactions to answers are
recorded as feedback with the api.

Interactions of a conversation are processed in order by a partitioned worker pool while different
conversations are processed concurrently.

Example code:

	package main

	import (
		"context"
		"log"

		"github.com/docsbot-dev/docsbot"
		"github.com/docsbot-dev/docsbot/apiclient"
		"github.com/docsbot-dev/docsbot/config"
	)

	func main() {
		v := config.NewViperWithDefaults()

		bot, err := docsbot.NewBot(v).
			WithAPIErr(apiclient.New(v.GetString(config.APIURLKey), apiclient.OptionTimeout(v.GetDuration(config.APITimeoutKey)))).
			Build()
		if err != nil {
			log.Fatal(err)
		}
		defer bot.Close()

		if err = bot.Run(context.Background()); err != nil {
			log.Fatal(err)
		}
	}
*/
package docsbot
