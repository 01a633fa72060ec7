// Package shortcut implements the trailing-clause grammar that lets one chat
// message carry its own destination list and card title:
//
//	anything in #list_name as *card_name
//	anything in #list_name
//	anything as *card_name
//
// A list token prefixed with "_" asks for the list to be created when it does
// not already exist on the board.
package shortcut

import (
	"regexp"
	"strings"
)

// CreateListMarker prefixes a list token meaning "create this list if absent".
const CreateListMarker = "_"

// DefaultCardNameLen caps the card title derived from content when the message
// names none.
const DefaultCardNameLen = 200

// Command is the parsed form of one message. Empty ListName means the caller
// must supply a default destination; empty CardTitle means no title was given
// and none could be derived.
type Command struct {
	ListName  string // possibly CreateListMarker-prefixed
	CardTitle string
	Content   string
}

type clauseKind int

const (
	clauseListAndTitle clauseKind = iota
	clauseListOnly
	clauseTitleOnly
)

// Clause shapes in priority order, each anchored at the end of the message.
// The combined form wins over its parts; within one shape the greedy content
// group makes the last occurrence win. Content may span lines, only the
// clause itself must sit on the last one.
var clauses = []struct {
	kind clauseKind
	re   *regexp.Regexp
}{
	{clauseListAndTitle, regexp.MustCompile(`^(?:(?s:(.*))\s+)?in #(\S+) as \*(\S+)$`)},
	{clauseListOnly, regexp.MustCompile(`^(?:(?s:(.*))\s+)?in #(\S+)$`)},
	{clauseTitleOnly, regexp.MustCompile(`^(?:(?s:(.*))\s+)?as \*(\S+)$`)},
}

// Parse splits a message into destination list, card title and remaining
// content. It never fails: when no clause matches, the whole text is content
// and the title defaults to its first DefaultCardNameLen characters (empty
// only for empty content).
func Parse(text string) Command {
	text = strings.TrimSpace(text)
	for _, c := range clauses {
		m := c.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cmd := Command{Content: strings.TrimSpace(m[1])}
		switch c.kind {
		case clauseListAndTitle:
			cmd.ListName, cmd.CardTitle = m[2], m[3]
		case clauseListOnly:
			cmd.ListName = m[2]
		case clauseTitleOnly:
			cmd.CardTitle = m[2]
		}
		return cmd
	}
	cmd := Command{Content: text}
	if text != "" {
		cmd.CardTitle = DefaultTitle(text)
	}
	return cmd
}

// Matches reports whether the message ends with a clause the grammar
// recognizes, i.e. whether Parse would route it somewhere explicit.
func Matches(text string) bool {
	text = strings.TrimSpace(text)
	for _, c := range clauses {
		if c.re.MatchString(text) {
			return true
		}
	}
	return false
}

// DestinationList strips the creation marker from a parsed list name,
// reporting whether it was present.
func DestinationList(name string) (string, bool) {
	if strings.HasPrefix(name, CreateListMarker) {
		return strings.TrimPrefix(name, CreateListMarker), true
	}
	return name, false
}

// NormalizeChoice turns a bare "#list ..." reply, as offered by the list
// choice keyboard or a media caption, into the "in #list ..." form the
// grammar understands.
func NormalizeChoice(text string) string {
	if strings.HasPrefix(text, "#") {
		return "in " + text
	}
	return text
}

// DefaultTitle derives a card title from content.
func DefaultTitle(content string) string {
	r := []rune(content)
	if len(r) > DefaultCardNameLen {
		return string(r[:DefaultCardNameLen])
	}
	return content
}
