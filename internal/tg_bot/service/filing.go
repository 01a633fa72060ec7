package service

import (
	"errors"
	"fmt"

	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/constant"
	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/models"
	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/shortcut"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoDestination marks a filing call that carried neither a list id nor
	// a list name. It is a caller bug, never user input.
	ErrNoDestination = errors.New("filing: no destination list provided")
	// ErrNoSuchList marks a named list that does not exist on the board while
	// creation was not requested.
	ErrNoSuchList = errors.New("filing: no list matches the requested name")
	// ErrTokenExpired marks a board-lists fetch the upstream rejected.
	ErrTokenExpired = errors.New("filing: trello rejected the stored token")
)

// filingRequest is the unit handed to the filing workflow. Exactly one of
// ListName and ListID must be set; a ListID is trusted as already resolved.
type filingRequest struct {
	Content     string
	ContentType models.ContentType
	CardTitle   string
	ListName    string // possibly marker-prefixed, resolved against the board
	ListID      string
}

// fileCard resolves the destination list, creates the card and reports the
// outcome to the user.
func (b *TgBotServices) fileCard(chatID int64, req filingRequest) error {
	cardID, listLabel, err := b.resolveAndCreate(chatID, req)
	switch {
	case err == nil:
		logrus.Infof("Done! Created card %s for chat %d", cardID, chatID)
		return b.sendMessage(chatID, fmt.Sprintf("Done! Put the %s into #%s as *%s",
			req.ContentType, listLabel, req.CardTitle), 0, nil)
	case errors.Is(err, ErrNoDestination):
		// A conversation-engine bug, not user input. Fail loudly.
		logrus.WithError(err).Errorf("Filing invoked without a destination for chat %d", chatID)
		b.reportError(chatID, "internal routing error")
		return err
	case errors.Is(err, ErrTokenExpired):
		b.sendMessage(chatID, constant.MSG_TOKEN_EXPIRED, 0, nil)
		return err
	case errors.Is(err, ErrNoSuchList):
		b.sendMessage(chatID, constant.MSG_NO_LIST_MATCH, 0, nil)
		return err
	default:
		logrus.WithError(err).Errorf("Failed to file card for chat %d", chatID)
		b.reportError(chatID, "could not file your card")
		return err
	}
}

// resolveAndCreate turns the request's destination into a list id and creates
// the card there. A given ListID is used as-is without any lookup call; a
// ListName is resolved against the board's current lists, creating the list
// first when the name carries the creation marker.
func (b *TgBotServices) resolveAndCreate(chatID int64, req filingRequest) (cardID, listLabel string, err error) {
	if req.ListID == "" && req.ListName == "" {
		return "", "", ErrNoDestination
	}

	setup, ok := b.Setups.GetUserSetup(chatID)
	if !ok {
		return "", "", fmt.Errorf("filing: chat %d has no setup", chatID)
	}

	listID := req.ListID
	if listID != "" {
		listLabel = constant.DEFAULT_LIST_NAME
	} else {
		name, createIfAbsent := shortcut.DestinationList(req.ListName)
		listLabel = name

		lists, lerr := b.Trello.GetBoardLists(setup.TrelloToken, setup.BoardID)
		if lerr != nil {
			return "", "", ErrTokenExpired
		}

		// Two racing filings for the same nonexistent _name both reach the
		// create branch; the workflow holds no reservation, so duplicates are
		// possible.
		switch found := findListByName(lists, name); {
		case found != "":
			listID = found
		case createIfAbsent:
			listID, lerr = b.Trello.CreateList(setup.TrelloToken, name, setup.BoardID)
			if lerr != nil {
				return "", "", fmt.Errorf("create list %q: %w", name, lerr)
			}
		default:
			return "", "", ErrNoSuchList
		}
	}

	cardID, err = b.Trello.CreateCard(setup.TrelloToken, listID, req.CardTitle, req.Content, req.ContentType)
	if err != nil {
		return "", "", fmt.Errorf("create card: %w", err)
	}
	return cardID, listLabel, nil
}

// findListByName is a linear search over the board's lists; absence comes
// back as an empty id.
func findListByName(lists map[string]models.BoardList, name string) string {
	for id, l := range lists {
		if l.Name == name {
			return id
		}
	}
	return ""
}
