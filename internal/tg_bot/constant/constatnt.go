package constant

const (
	// DEFAULT_LIST_NAME is the reserved list name used as the inbox default
	// when the user's board has one.
	DEFAULT_LIST_NAME = "inbox"

	BUTTON_TEXT_CANCEL = "/cancel"

	MSG_STATUS    = "I'm here listening."
	MSG_NOT_SETUP = "You are not authenticated yet. Use /setup please."

	MSG_ASK_TOKEN = "Hi there! Welcome. First, tell me your Trello token."
	MSG_TOKEN_MALFORMED = "The token is invalid. Restart the process using /setup " +
		"and then choose a valid one.\nEND."
	MSG_TOKEN_INVALID = "Sorry, the token looks invalid. Restart the process using /setup " +
		"and then choose a new, valid one.\nEND."
	MSG_CHOOSE_BOARD = "Token validated successfully. Please choose, among these, your preferred board for " +
		"ideas collection. There are listed only starred boards. " +
		"If it's not among them, star your preferred board, and then restart the process."
	MSG_BOARD_NOT_IN_LIST = "The board was not in the list. Star your chosen one, restart using /setup " +
		"and then choose it from the list.\nEND."
	MSG_SETUP_DONE = "Setup completed. You can now fully use the bot."
	MSG_CANCELLED  = "I've been obliviated. Fear no more."

	MSG_TOKEN_EXPIRED = "Trello token expired. Restart doing /setup and " +
		"then saving your stuff again."
	MSG_NO_LIST_MATCH   = "No list found matching your choice. Restart please."
	MSG_NO_DEFAULT_LIST = "No default list provided! Re-run the setup with at least a list please."
	MSG_WHERE_TO_SAVE   = "Where do you want to save it?"
	MSG_BAD_CHOICE      = "Your choice is not valid. Please restart."
)
