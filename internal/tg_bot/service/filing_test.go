package service

import (
	"errors"
	"testing"

	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/constant"
	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWithListIDNeverLooksUpLists(t *testing.T) {
	trello := &fakeTrello{}
	setups := newFakeSetups()
	require.NoError(t, setups.StoreUserSetup(storedSetup(7)))
	bot, sender := newBot(trello, setups, false)

	err := bot.fileCard(7, filingRequest{
		Content:     "buy milk",
		ContentType: models.ContentText,
		CardTitle:   "buy milk",
		ListID:      "l-inbox",
	})

	require.NoError(t, err)
	assert.Zero(t, trello.listCalls)
	require.Len(t, trello.cards, 1)
	assert.Equal(t, "l-inbox", trello.cards[0].listID)
	assert.Equal(t, "Done! Put the text into #inbox as *buy milk", sender.lastText())
}

func TestFileResolvesExistingListByName(t *testing.T) {
	trello := &fakeTrello{lists: boardLists()}
	setups := newFakeSetups()
	require.NoError(t, setups.StoreUserSetup(storedSetup(7)))
	bot, _ := newBot(trello, setups, false)

	err := bot.fileCard(7, filingRequest{
		Content:     "note",
		ContentType: models.ContentText,
		CardTitle:   "note",
		ListName:    "work",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, trello.listCalls)
	assert.Empty(t, trello.createdLists)
	require.Len(t, trello.cards, 1)
	assert.Equal(t, "l-work", trello.cards[0].listID)
}

func TestFileMarkedNameCreatesMissingList(t *testing.T) {
	trello := &fakeTrello{lists: boardLists()}
	setups := newFakeSetups()
	require.NoError(t, setups.StoreUserSetup(storedSetup(7)))
	bot, _ := newBot(trello, setups, false)

	err := bot.fileCard(7, filingRequest{
		Content:     "note",
		ContentType: models.ContentText,
		CardTitle:   "note",
		ListName:    "_projects",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"projects"}, trello.createdLists)
	require.Len(t, trello.cards, 1)
	assert.Equal(t, "created-projects", trello.cards[0].listID)
}

func TestFileMarkedNameReusesExistingList(t *testing.T) {
	trello := &fakeTrello{lists: boardLists()}
	setups := newFakeSetups()
	require.NoError(t, setups.StoreUserSetup(storedSetup(7)))
	bot, _ := newBot(trello, setups, false)

	err := bot.fileCard(7, filingRequest{
		Content:     "note",
		ContentType: models.ContentText,
		CardTitle:   "note",
		ListName:    "_work",
	})

	require.NoError(t, err)
	assert.Empty(t, trello.createdLists)
	require.Len(t, trello.cards, 1)
	assert.Equal(t, "l-work", trello.cards[0].listID)
}

// The workflow holds no reservation between lookup and creation: two
// back-to-back filings for the same nonexistent marked name both create a
// list. This pins the duplicate-risk behavior rather than hiding it.
func TestFileMarkedNameTwiceCreatesTwice(t *testing.T) {
	trello := &fakeTrello{lists: boardLists()}
	setups := newFakeSetups()
	require.NoError(t, setups.StoreUserSetup(storedSetup(7)))
	bot, _ := newBot(trello, setups, false)

	req := filingRequest{
		Content:     "note",
		ContentType: models.ContentText,
		CardTitle:   "note",
		ListName:    "_projects",
	}
	require.NoError(t, bot.fileCard(7, req))
	require.NoError(t, bot.fileCard(7, req))

	assert.Equal(t, []string{"projects", "projects"}, trello.createdLists)
}

func TestFileUnknownListWithoutMarkerHasNoSideEffects(t *testing.T) {
	trello := &fakeTrello{lists: boardLists()}
	setups := newFakeSetups()
	require.NoError(t, setups.StoreUserSetup(storedSetup(7)))
	bot, sender := newBot(trello, setups, false)

	err := bot.fileCard(7, filingRequest{
		Content:     "note",
		ContentType: models.ContentText,
		CardTitle:   "note",
		ListName:    "nonexistent",
	})

	require.ErrorIs(t, err, ErrNoSuchList)
	assert.Empty(t, trello.createdLists)
	assert.Empty(t, trello.cards)
	assert.Equal(t, constant.MSG_NO_LIST_MATCH, sender.lastText())
}

func TestFileExpiredTokenTellsUserToRedoSetup(t *testing.T) {
	trello := &fakeTrello{listsErr: errors.New("401")}
	setups := newFakeSetups()
	require.NoError(t, setups.StoreUserSetup(storedSetup(7)))
	bot, sender := newBot(trello, setups, false)

	err := bot.fileCard(7, filingRequest{
		Content:     "note",
		ContentType: models.ContentText,
		CardTitle:   "note",
		ListName:    "work",
	})

	require.ErrorIs(t, err, ErrTokenExpired)
	assert.Empty(t, trello.cards)
	assert.Equal(t, constant.MSG_TOKEN_EXPIRED, sender.lastText())
}

func TestFileWithoutDestinationFailsLoudly(t *testing.T) {
	trello := &fakeTrello{lists: boardLists()}
	setups := newFakeSetups()
	require.NoError(t, setups.StoreUserSetup(storedSetup(7)))
	bot, _ := newBot(trello, setups, false)

	err := bot.fileCard(7, filingRequest{
		Content:     "note",
		ContentType: models.ContentText,
		CardTitle:   "note",
	})

	require.ErrorIs(t, err, ErrNoDestination)
	assert.Zero(t, trello.listCalls)
	assert.Empty(t, trello.cards)
}

func TestFileGatewayFailureSurfacesGenericError(t *testing.T) {
	trello := &fakeTrello{lists: boardLists(), cardErr: errors.New("boom")}
	setups := newFakeSetups()
	require.NoError(t, setups.StoreUserSetup(storedSetup(7)))
	bot, sender := newBot(trello, setups, false)

	err := bot.fileCard(7, filingRequest{
		Content:     "note",
		ContentType: models.ContentText,
		CardTitle:   "note",
		ListName:    "work",
	})

	require.Error(t, err)
	assert.Contains(t, sender.lastText(), "could not file your card")
}
