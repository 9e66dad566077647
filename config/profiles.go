package config

const (
	enIntroMessage = "Hi <@{user}>:\n\n" +
		"Please note that *docsbot is currently in alpha testing* and will experience frequent updates.\n\n" +
		"Please do not share any private or sensitive information in your query at this time.\n\n" +
		"Please note that overly long messages (>1024 words) will be truncated!\n\n" +
		"Generating response..."

	enOutroMessage = ":robot_face: If you still need help please try re-phrase your question, " +
		"or alternatively reach out to the support team in the support channel. " +
		"Please react with :thumbsup: or :thumbsdown: to let us know if this answer was helpful."

	enErrorMessage = "Oops!, Something went wrong. Please retry again later"

	enFallbackWarning = "*Warning: Falling back to {model}*, these results may not be as good as *{preferredModel}*\n\n"

	jaIntroMessage = "こんにちは <@{user}>:\n\n" +
		"docsbotは現在アルファテスト中のため、頻繁にアップデートされます。\n\n" +
		"現時点では、機密情報や個人情報を含む質問はご遠慮ください。\n\n" +
		"長すぎるメッセージ（1024語以上）は切り捨てられますのでご注意ください。\n\n" +
		"回答を生成しています..."

	jaOutroMessage = ":robot_face: 解決しない場合は、質問を言い換えて再度お試しいただくか、" +
		"サポートチャンネルでサポートチームにお問い合わせください。" +
		"この回答が役に立ったかどうか :thumbsup: または :thumbsdown: でお知らせください。"

	jaErrorMessage = "「おっと、問題が発生しました。しばらくしてからもう一度お試しください。」"

	jaFallbackWarning = "*警告: {model}* にフォールバックします。これらの結果は *{preferredModel}* ほど良くない可能性があります\n\n"
)

// profileDefaults holds the default values of both language profiles. Tokens have
// no defaults and come from the environment or configuration file
var profileDefaults = map[string]map[string]interface{}{
	English: {
		ApplicationKey:      "Slack_EN",
		IntroMessageKey:     enIntroMessage,
		OutroMessageKey:     enOutroMessage,
		ErrorMessageKey:     enErrorMessage,
		FallbackWarningKey:  enFallbackWarning,
		IncludeSourcesKey:   true,
		PreferredModelKey:   defaultPreferredModel,
		BroadcastAnswersKey: false,
	},
	Japanese: {
		ApplicationKey:      "Slack_JA",
		IntroMessageKey:     jaIntroMessage,
		OutroMessageKey:     jaOutroMessage,
		ErrorMessageKey:     jaErrorMessage,
		FallbackWarningKey:  jaFallbackWarning,
		IncludeSourcesKey:   true,
		PreferredModelKey:   defaultPreferredModel,
		BroadcastAnswersKey: false,
	},
}
