// Package formatter turns answers from the question-answering api into text ready
// to be sent to slack
package formatter

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	codeBlockRegex   = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRegex  = regexp.MustCompile("`[^`\n]+`")
	headerRegex      = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+?)[ \t]*#*[ \t]*$`)
	boldRegex        = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	strikeRegex      = regexp.MustCompile(`~~(.+?)~~`)
	imageRegex       = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	linkRegex        = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	bulletRegex      = regexp.MustCompile(`(?m)^([ \t]*)[*+-][ \t]+`)
	placeholderRegex = regexp.MustCompile(`\x00(\d+)\x00`)
)

// ToMrkdwn converts github flavored markdown to the slack mrkdwn dialect. Code blocks and inline
// code spans are left untouched. NUL characters are dropped
func ToMrkdwn(markdown string) string {
	// NUL delimits the placeholders of protected spans
	markdown = strings.ReplaceAll(markdown, "\x00", "")

	protected := make([]string, 0)
	protect := func(s string) string {
		protected = append(protected, s)
		return "\x00" + strconv.Itoa(len(protected)-1) + "\x00"
	}

	text := codeBlockRegex.ReplaceAllStringFunc(markdown, func(block string) string {
		return protect(stripCodeBlockLanguage(block))
	})
	text = inlineCodeRegex.ReplaceAllStringFunc(text, protect)

	text = imageRegex.ReplaceAllString(text, "<$2|$1>")
	text = linkRegex.ReplaceAllString(text, "<$2|$1>")

	// Bullets are converted before bold so that a leading "* " isn't mistaken for emphasis
	text = bulletRegex.ReplaceAllString(text, "${1}• ")

	text = boldRegex.ReplaceAllStringFunc(text, func(m string) string {
		sub := boldRegex.FindStringSubmatch(m)
		if sub[1] != "" {
			return "*" + sub[1] + "*"
		}
		return "*" + sub[2] + "*"
	})
	text = headerRegex.ReplaceAllString(text, "*$1*")
	text = strikeRegex.ReplaceAllString(text, "~$1~")

	return placeholderRegex.ReplaceAllStringFunc(text, func(p string) string {
		i, err := strconv.Atoi(placeholderRegex.FindStringSubmatch(p)[1])
		if err != nil || i >= len(protected) {
			return p
		}
		return protected[i]
	})
}

// stripCodeBlockLanguage removes the language hint of a fenced code block since slack
// would render it as part of the code
func stripCodeBlockLanguage(block string) string {
	body := strings.TrimPrefix(block, "```")
	nl := strings.Index(body, "\n")
	if nl <= 0 {
		return block
	}

	if hint := body[:nl]; !strings.ContainsAny(hint, " \t`") {
		return "```\n" + body[nl+1:]
	}

	return block
}
