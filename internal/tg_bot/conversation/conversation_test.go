package conversation

import (
	"strings"
	"testing"

	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitingTokenAccepts(t *testing.T) {
	valid := strings.Repeat("ab12", 16)
	assert.True(t, StateAwaitingToken.Accepts(valid))
	assert.True(t, StateAwaitingToken.Accepts("  "+valid+" "))

	assert.False(t, StateAwaitingToken.Accepts(valid[:63]))
	assert.False(t, StateAwaitingToken.Accepts(strings.ToUpper(valid)))
	assert.False(t, StateAwaitingToken.Accepts("not a token"))
	assert.False(t, StateAwaitingToken.Accepts(""))
}

func TestAwaitingBoardAccepts(t *testing.T) {
	assert.True(t, StateAwaitingBoard.Accepts("Work (abcd)"))
	assert.True(t, StateAwaitingBoard.Accepts("My Ideas Board (0f1e)"))

	assert.False(t, StateAwaitingBoard.Accepts("Work"))
	assert.False(t, StateAwaitingBoard.Accepts("Work (abcde)"))
	assert.False(t, StateAwaitingBoard.Accepts("Work (ABCD)"))
}

func TestAwaitingListChoiceAccepts(t *testing.T) {
	for _, text := range []string{"#work", "in #work", "#_new", "#work as *Title", "."} {
		assert.True(t, StateAwaitingListChoice.Accepts(text), text)
	}
	for _, text := range []string{"work", "hello there", "..", "# work", ""} {
		assert.False(t, StateAwaitingListChoice.Accepts(text), text)
	}
}

func TestMatchBoardChoice(t *testing.T) {
	name, idPrefix, ok := MatchBoardChoice("My Ideas Board (0f1e)")
	require.True(t, ok)
	assert.Equal(t, "My Ideas Board", name)
	assert.Equal(t, "0f1e", idPrefix)

	_, _, ok = MatchBoardChoice("garbage")
	assert.False(t, ok)
}

func TestSessionLifecycle(t *testing.T) {
	m := NewManager()
	require.Nil(t, m.Get(1))

	m.Begin(1, &Session{State: StateAwaitingToken})
	s := m.Get(1)
	require.NotNil(t, s)
	assert.Equal(t, StateAwaitingToken, s.State)

	// one session per chat, Begin replaces
	m.Begin(1, &Session{State: StateAwaitingListChoice, Content: "pending", ContentType: models.ContentText})
	s = m.Get(1)
	require.NotNil(t, s)
	assert.Equal(t, StateAwaitingListChoice, s.State)
	assert.Equal(t, "pending", s.Content)

	// independent per chat
	require.Nil(t, m.Get(2))

	m.Clear(1)
	assert.Nil(t, m.Get(1))
	m.Clear(1) // idempotent
	assert.Nil(t, m.Get(1))
}
