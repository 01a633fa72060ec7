// Package service provides the core logic for the Trello collector bot.
// It routes Telegram updates through the conversation engine and hands
// resolved content to the card filing workflow.
package service

import (
	"fmt"
	"strings"

	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/constant"
	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/conversation"
	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/models"
	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/shortcut"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Trello defines the interface for the card-tracking service gateway.
type Trello interface {
	GetStarredBoards(token string) (map[string]models.Board, error)
	GetBoardLists(token, boardID string) (map[string]models.BoardList, error)
	CreateList(token, listName, boardID string) (string, error)
	CreateCard(token, listID, cardName, content string, contentType models.ContentType) (string, error)
	RemoveCardCover(token, cardID string) error
}

// UserSetupRepository defines the interface for durable per-user setup records.
type UserSetupRepository interface {
	ReadFileToMemory() error
	StoreUserSetup(setup models.UserSetup) error
	GetUserSetup(chatID int64) (models.UserSetup, bool)
	IsUserSetup(chatID int64) bool
}

// Sender is the slice of the Telegram Bot API the service needs.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// TgBotServices is the main service struct for the bot, integrating all
// dependencies.
type TgBotServices struct {
	Trello     Trello                // Card-tracking service gateway
	Setups     UserSetupRepository   // Durable setup records
	Sessions   *conversation.Manager // Open exchanges, one per chat at most
	Bot        Sender                // Telegram Bot API instance
	AskForList bool                  // Prompt for a list on plain content instead of defaulting to the inbox
}

// NewTgBot creates a new TgBotServices instance with the specified dependencies.
func NewTgBot(trello Trello, setups UserSetupRepository, sessions *conversation.Manager, bot Sender, askForList bool) *TgBotServices {
	return &TgBotServices{
		Trello:     trello,
		Setups:     setups,
		Sessions:   sessions,
		Bot:        bot,
		AskForList: askForList,
	}
}

// sendMessage sends a message to the specified chat with optional reply and markup.
func (b *TgBotServices) sendMessage(chatID int64, text string, replyToID int, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyToID != 0 {
		msg.ReplyToMessageID = replyToID
	}
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := b.Bot.Send(msg)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d: %s", chatID, text)
	}
	return err
}

// reportError ends the chat's exchange with a generic failure message.
func (b *TgBotServices) reportError(chatID int64, errorName string) error {
	b.Sessions.Clear(chatID)
	return b.sendMessage(chatID, fmt.Sprintf("Something wrong happened: %s. "+
		"Restart the process please.\nEND.", errorName), 0, nil)
}

// UpdateProcessing handles one incoming Telegram update.
func (b *TgBotServices) UpdateProcessing(update *tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID
	text := msg.Text

	var err error
	switch text {
	case "/setup":
		err = b.startSetup(chatID)
	case "/cancel":
		b.Sessions.Clear(chatID)
		err = b.sendMessage(chatID, constant.MSG_CANCELLED, 0, nil)
	case "/status":
		logrus.Infof("Got /status from chat %d", chatID)
		err = b.sendMessage(chatID, constant.MSG_STATUS, 0, nil)
	case "/start", "/help":
		err = b.sendGreeting(chatID)
	default:
		if s := b.Sessions.Get(chatID); s != nil {
			b.continueExchange(chatID, s, msg)
			return
		}
		switch {
		case len(msg.Photo) > 0 || msg.Document != nil:
			b.processMedia(chatID, msg)
		case text != "":
			b.processText(chatID, msg)
		}
	}
	if err != nil {
		logrus.WithError(err).Errorf("Failed handling update for chat %d", chatID)
	}
}

// sendGreeting replies to /start and /help with the shortcut grammar summary,
// prepending a setup nudge for unauthenticated users.
func (b *TgBotServices) sendGreeting(chatID int64) error {
	setupHint := ""
	if !b.Setups.IsUserSetup(chatID) {
		setupHint = "First, using /setup you should authenticate your Trello account.\n"
	}
	return b.sendMessage(chatID, fmt.Sprintf(
		"Hi there!\n%s"+
			"You can use the shortcut mode in this way:\n"+
			"- anything in #list_name as *card_name\n"+
			"- anything in #list_name\n"+
			"- anything as *card_name", setupHint), 0, nil)
}

// continueExchange validates a reply against the chat's open exchange and
// advances or terminates it.
func (b *TgBotServices) continueExchange(chatID int64, s *conversation.Session, msg *tgbotapi.Message) {
	switch s.State {
	case conversation.StateAwaitingToken:
		b.processTokenReply(chatID, msg.Text)
	case conversation.StateAwaitingBoard:
		b.processBoardReply(chatID, s, msg.Text)
	case conversation.StateAwaitingListChoice:
		b.processListChoiceReply(chatID, s, msg.Text)
	default:
		logrus.Errorf("Session for chat %d is in unknown state %d, dropping it", chatID, s.State)
		b.Sessions.Clear(chatID)
	}
}

// startSetup opens the setup exchange and asks for the Trello token.
func (b *TgBotServices) startSetup(chatID int64) error {
	logrus.Infof("Got /setup from chat %d", chatID)
	b.Sessions.Begin(chatID, &conversation.Session{State: conversation.StateAwaitingToken})
	return b.sendMessage(chatID, constant.MSG_ASK_TOKEN, 0, nil)
}

// processTokenReply validates the candidate token shape, checks it against
// Trello and presents the starred boards to choose from.
func (b *TgBotServices) processTokenReply(chatID int64, text string) {
	if !conversation.StateAwaitingToken.Accepts(text) {
		b.Sessions.Clear(chatID)
		b.sendMessage(chatID, constant.MSG_TOKEN_MALFORMED, 0, nil)
		return
	}

	token := strings.TrimSpace(text)
	boards, err := b.Trello.GetStarredBoards(token)
	if err != nil {
		logrus.WithError(err).Infof("Token rejected for chat %d", chatID)
		b.Sessions.Clear(chatID)
		b.sendMessage(chatID, constant.MSG_TOKEN_INVALID, 0, nil)
		return
	}

	b.Sessions.Begin(chatID, &conversation.Session{
		State:       conversation.StateAwaitingBoard,
		TrelloToken: token,
	})

	rows := make([][]tgbotapi.KeyboardButton, 0, len(boards)+1)
	for _, board := range boards {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(boardChoiceLabel(board))))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_CANCEL)))
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.OneTimeKeyboard = true

	if err = b.sendMessage(chatID, constant.MSG_CHOOSE_BOARD, 0, markup); err != nil {
		logrus.WithError(err).Error("Failed to present board choices")
	}
}

// boardChoiceLabel renders a board as the "Name (id4)" keyboard choice.
func boardChoiceLabel(board models.Board) string {
	prefix := board.ID
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return fmt.Sprintf("%s (%s)", board.Name, prefix)
}

// processBoardReply resolves the echoed board choice, picks the inbox default
// and persists the completed setup.
func (b *TgBotServices) processBoardReply(chatID int64, s *conversation.Session, text string) {
	name, idPrefix, ok := conversation.MatchBoardChoice(text)
	if !ok {
		b.Sessions.Clear(chatID)
		b.sendMessage(chatID, constant.MSG_BOARD_NOT_IN_LIST, 0, nil)
		return
	}

	boards, err := b.Trello.GetStarredBoards(s.TrelloToken)
	if err != nil {
		b.reportError(chatID, "invalid trello token")
		return
	}

	// Id-prefixes may collide with names across boards, so the chosen board
	// must match both.
	var chosen *models.Board
	for id, board := range boards {
		if strings.HasPrefix(id, idPrefix) && board.Name == name {
			chosen = &models.Board{ID: board.ID, Name: board.Name}
			break
		}
	}
	if chosen == nil {
		b.reportError(chatID, "No valid board found")
		return
	}

	lists, err := b.Trello.GetBoardLists(s.TrelloToken, chosen.ID)
	if err != nil {
		b.Sessions.Clear(chatID)
		b.sendMessage(chatID, constant.MSG_TOKEN_EXPIRED, 0, nil)
		return
	}

	setup := models.UserSetup{
		ChatID:      chatID,
		TrelloToken: s.TrelloToken,
		BoardID:     chosen.ID,
		BoardName:   chosen.Name,
		InboxListID: pickInboxList(lists),
	}
	if err = b.Setups.StoreUserSetup(setup); err != nil {
		logrus.WithError(err).Errorf("Failed to persist setup for chat %d", chatID)
		b.reportError(chatID, "could not save your setup")
		return
	}

	b.Sessions.Clear(chatID)
	b.sendMessage(chatID, constant.MSG_SETUP_DONE, 0, nil)
}

// pickInboxList returns the id of the list named like the reserved inbox name,
// else some list of the board, else empty. The boards endpoint gives no
// ordering contract, so the non-inbox fallback picks the smallest list id to
// stay deterministic.
func pickInboxList(lists map[string]models.BoardList) string {
	fallback := ""
	for id, l := range lists {
		if l.Name == constant.DEFAULT_LIST_NAME {
			return id
		}
		if fallback == "" || id < fallback {
			fallback = id
		}
	}
	return fallback
}

// processText handles a plain or shortcut-carrying text message.
func (b *TgBotServices) processText(chatID int64, msg *tgbotapi.Message) {
	if !b.Setups.IsUserSetup(chatID) {
		b.sendMessage(chatID, constant.MSG_NOT_SETUP, 0, nil)
		return
	}

	contentType := models.ContentText
	if hasURLEntity(msg) {
		contentType = models.ContentURL
	}

	if shortcut.Matches(msg.Text) {
		cmd := shortcut.Parse(msg.Text)
		title := cmd.CardTitle
		if title == "" {
			title = defaultTitleFor(cmd.Content, contentType)
		}
		if cmd.ListName == "" {
			// Title-only shortcut, destination stays the inbox default.
			b.fileToInbox(chatID, cmd.Content, contentType, title)
			return
		}
		b.fileCard(chatID, filingRequest{
			Content:     cmd.Content,
			ContentType: contentType,
			CardTitle:   title,
			ListName:    cmd.ListName,
		})
		return
	}

	if !b.AskForList {
		b.fileToInbox(chatID, msg.Text, contentType, defaultTitleFor(msg.Text, contentType))
		return
	}
	b.promptForList(chatID, msg.Text, contentType)
}

// promptForList opens the one-step list-choice exchange for pending content,
// offering the board's lists as a keyboard.
func (b *TgBotServices) promptForList(chatID int64, content string, contentType models.ContentType) {
	b.Sessions.Begin(chatID, &conversation.Session{
		State:       conversation.StateAwaitingListChoice,
		Content:     content,
		ContentType: contentType,
		CardTitle:   defaultTitleFor(content, contentType),
	})

	setup, _ := b.Setups.GetUserSetup(chatID)
	lists, err := b.Trello.GetBoardLists(setup.TrelloToken, setup.BoardID)
	if err != nil {
		logrus.WithError(err).Infof("Could not fetch lists for the choice keyboard of chat %d", chatID)
		lists = nil
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(lists)+1)
	for _, l := range lists {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("#"+l.Name)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_CANCEL)))
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.OneTimeKeyboard = true

	if err = b.sendMessage(chatID, constant.MSG_WHERE_TO_SAVE, 0, markup); err != nil {
		logrus.WithError(err).Error("Failed to present list choices")
	}
}

// processListChoiceReply resolves the reply to a "which list?" prompt and
// files the pending content. The exchange is terminal whatever happens here.
func (b *TgBotServices) processListChoiceReply(chatID int64, s *conversation.Session, text string) {
	if !conversation.StateAwaitingListChoice.Accepts(text) {
		b.Sessions.Clear(chatID)
		b.sendMessage(chatID, constant.MSG_BAD_CHOICE, 0, nil)
		return
	}

	content, contentType, provisional := s.Content, s.ContentType, s.CardTitle
	b.Sessions.Clear(chatID)

	if text == conversation.SkipChoice {
		b.fileToInbox(chatID, content, contentType, provisional)
		return
	}

	cmd := shortcut.Parse(shortcut.NormalizeChoice(text))
	title := cmd.CardTitle
	if title == "" {
		title = provisional
	}
	if cmd.ListName == "" {
		b.fileToInbox(chatID, content, contentType, title)
		return
	}
	b.fileCard(chatID, filingRequest{
		Content:     content,
		ContentType: contentType,
		CardTitle:   title,
		ListName:    cmd.ListName,
	})
}

// processMedia files a photo or document, parsing its caption as a shortcut.
func (b *TgBotServices) processMedia(chatID int64, msg *tgbotapi.Message) {
	if !b.Setups.IsUserSetup(chatID) {
		b.sendMessage(chatID, constant.MSG_NOT_SETUP, 0, nil)
		return
	}

	var fileID, defaultName string
	var contentType models.ContentType
	switch {
	case len(msg.Photo) > 0:
		photo := msg.Photo[len(msg.Photo)-1] // largest size last
		fileID = photo.FileID
		defaultName = truncate(photo.FileID, 10)
		contentType = models.ContentImage
	case msg.Document != nil:
		fileID = msg.Document.FileID
		defaultName = msg.Document.FileName
		if defaultName == "" {
			defaultName = msg.Document.FileID
		}
		defaultName = truncate(defaultName, 10)
		contentType = models.ContentDocument
	default:
		return
	}

	fileURL, err := b.Bot.GetFileDirectURL(fileID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to resolve file %s for chat %d", fileID, chatID)
		b.reportError(chatID, "could not fetch your file")
		return
	}

	cmd := shortcut.Parse(shortcut.NormalizeChoice(msg.Caption))
	title := cmd.CardTitle
	if title == "" {
		title = defaultName
	}
	if cmd.ListName == "" {
		b.fileToInbox(chatID, fileURL, contentType, title)
		return
	}
	b.fileCard(chatID, filingRequest{
		Content:     fileURL,
		ContentType: contentType,
		CardTitle:   title,
		ListName:    cmd.ListName,
	})
}

// fileToInbox files content to the user's stored default list.
func (b *TgBotServices) fileToInbox(chatID int64, content string, contentType models.ContentType, title string) {
	setup, ok := b.Setups.GetUserSetup(chatID)
	if !ok {
		b.sendMessage(chatID, constant.MSG_NOT_SETUP, 0, nil)
		return
	}
	if setup.InboxListID == "" {
		b.sendMessage(chatID, constant.MSG_NO_DEFAULT_LIST, 0, nil)
		return
	}
	b.fileCard(chatID, filingRequest{
		Content:     content,
		ContentType: contentType,
		CardTitle:   title,
		ListID:      setup.InboxListID,
	})
}

// defaultTitleFor derives a card title from content when the message named
// none. Links keep the full URL as title.
func defaultTitleFor(content string, contentType models.ContentType) string {
	if contentType == models.ContentURL {
		return content
	}
	return shortcut.DefaultTitle(content)
}

// hasURLEntity reports whether the message carries a url entity.
func hasURLEntity(msg *tgbotapi.Message) bool {
	for _, e := range msg.Entities {
		if e.Type == "url" {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
