package models

// ContentType classifies what a filed card carries.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentURL      ContentType = "url"
	ContentImage    ContentType = "image"
	ContentDocument ContentType = "document"
)

// UserSetup is the durable per-user binding to a Trello board. A record exists
// for a chat only after that chat completed the setup exchange.
type UserSetup struct {
	ChatID      int64  `json:"chatID"`      // Telegram chat the setup belongs to
	TrelloToken string `json:"trelloToken"` // Trello credential used for every downstream call
	BoardID     string `json:"boardID"`     // The single board this user bound to
	BoardName   string `json:"boardName"`
	InboxListID string `json:"inboxListID"` // May be empty when the board had no lists at setup time
}

// Board is a Trello board as the bot needs it.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BoardList is one list of a board.
type BoardList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
