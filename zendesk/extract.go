package zendesk

import (
	"regexp"
	"strings"
)

// Ticket origins, identified by tag
const (
	ForumTag          = "forum"
	OfflineMessageTag = "zopim_offline_message"
	EmailCCTag        = "add_cc_note"

	// AnsweredTag marks the tickets answered by the responder
	AnsweredTag = "answered_by_bot"
)

var (
	// Forum topics synced from the community forum end with a separator followed by the topic links
	forumFooter = regexp.MustCompile(`(?m)^-{3,}\s*$`)
	// Offline chat messages list the visitor details before the message itself
	offlineMessageLabel = regexp.MustCompile(`(?m)^\s*Message:\s*`)
	// Quoted replies start with a line like "On Mon, Jan 1, 2024 at 10:00 AM Someone <x@y.z> wrote:"
	emailReplyHeader = regexp.MustCompile(`(?m)^\s*On .+wrote:\s*$`)
)

// ExtractQuestion returns the question asked in a ticket. The envelope added by the channel the
// ticket came from, recognized by its tag, is removed from the description
func ExtractQuestion(t Ticket) (question string) {
	switch {
	case t.HasTag(ForumTag):
		question = extractForumQuestion(t.Description)
	case t.HasTag(OfflineMessageTag):
		question = extractOfflineMessage(t.Description)
	case t.HasTag(EmailCCTag):
		question = extractEmailMessage(t.Description)
	default:
		question = t.Description
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return strings.TrimSpace(t.Description)
	}

	return question
}

func extractForumQuestion(description string) string {
	if loc := forumFooter.FindStringIndex(description); loc != nil {
		return description[:loc[0]]
	}

	return description
}

func extractOfflineMessage(description string) string {
	locs := offlineMessageLabel.FindAllStringIndex(description, -1)
	if len(locs) == 0 {
		return description
	}

	return description[locs[len(locs)-1][1]:]
}

func extractEmailMessage(description string) string {
	if loc := emailReplyHeader.FindStringIndex(description); loc != nil {
		description = description[:loc[0]]
	}

	lines := strings.Split(description, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if !strings.HasPrefix(strings.TrimSpace(l), ">") {
			kept = append(kept, l)
		}
	}

	return strings.Join(kept, "\n")
}

// FormatAnswer returns the ticket comment for an answer
func FormatAnswer(intro string, answer string, signature string) string {
	if signature == "" {
		return intro + answer
	}

	return intro + answer + "\n\n" + signature
}
