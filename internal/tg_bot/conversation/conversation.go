// Package conversation tracks the multi-turn exchanges the bot runs per chat:
// the setup flow (token, then board) and the ad-hoc "which list?" prompt.
// States are an explicit enum with a compiled input pattern each, independent
// of any messaging library dispatcher. The service layer owns the side effects
// of every transition; this package owns reply validity and session lifetime.
package conversation

import (
	"regexp"
	"sync"

	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/models"
)

// State enumerates the non-terminal steps of an open exchange.
type State int

const (
	StateNone State = iota // no open exchange
	StateAwaitingToken
	StateAwaitingBoard
	StateAwaitingListChoice
)

// SkipChoice is the "no preference" reply in the list-choice exchange: keep
// the precomputed title and file to the inbox default.
const SkipChoice = "."

// Input patterns each state accepts; any other reply must end the exchange as
// a terminal failure.
var inputPatterns = map[State]*regexp.Regexp{
	StateAwaitingToken:      regexp.MustCompile(`^\s*[a-f0-9]{64}\s*$`),
	StateAwaitingBoard:      regexp.MustCompile(`^(.*) \(([a-f0-9]{4})\)$`),
	StateAwaitingListChoice: regexp.MustCompile(`^((in )?#_?\S+( as \*\S+)?|\.)$`),
}

// Accepts reports whether text is a valid reply for the state.
func (s State) Accepts(text string) bool {
	re, ok := inputPatterns[s]
	if !ok {
		return false
	}
	return re.MatchString(text)
}

// MatchBoardChoice splits a "Name (id4)" reply into its name and id-prefix
// parts. ok is false when the reply does not have that shape.
func MatchBoardChoice(text string) (name, idPrefix string, ok bool) {
	m := inputPatterns[StateAwaitingBoard].FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Session is the scratch space of one open exchange.
type Session struct {
	State       State
	TrelloToken string // candidate token collected during setup

	// Pending content while awaiting a list choice.
	Content     string
	ContentType models.ContentType
	CardTitle   string // provisional title for the pending content
}

// Manager owns at most one Session per chat.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// Begin opens the chat's exchange, replacing any previous one.
func (m *Manager) Begin(chatID int64, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = s
}

// Get returns the chat's open session, or nil.
func (m *Manager) Get(chatID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[chatID]
}

// Clear ends the chat's exchange, dropping all scratch data. Every terminal
// transition must go through here: a stale session would make the next
// unrelated message look like a reply to a finished exchange.
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}
