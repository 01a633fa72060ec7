// Package api provides the Trello REST client used to file cards.
// It supports enumerating starred boards and their lists, creating lists and
// cards, attaching payloads and stripping auto-generated card covers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Constants for API paths
const (
	MemberBoardsPath    = "/1/members/me/boards"
	BoardListsPath      = "/1/boards/%s/lists"
	ListsPath           = "/1/lists"
	CardsPath           = "/1/cards"
	CardPath            = "/1/cards/%s"
	CardAttachmentsPath = "/1/cards/%s/attachments"
)

// boardResponse mirrors the board fields the bot reads.
type boardResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Starred bool   `json:"starred"`
}

// listResponse mirrors the list fields the bot reads.
type listResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

// createResponse carries the id of a freshly created list or card.
type createResponse struct {
	ID string `json:"id"`
}

// TrelloAPI represents a client for interacting with the Trello REST API.
// The application key is fixed per bot; the user token comes with every call.
type TrelloAPI struct {
	endpoint string // API endpoint URL
	apiKey   string // Trello application key
	client   *http.Client
}

// NewTrelloAPI creates a new instance of TrelloAPI with the specified endpoint
// and application key.
func NewTrelloAPI(endpoint, apiKey string) *TrelloAPI {
	return &TrelloAPI{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second, // Configurable in a real app
		},
	}
}

// doRequest performs one authenticated call and returns the raw body.
// Any non-200 status is an error; Trello signals auth and not-found failures
// the same way and the callers never distinguish further.
func (t *TrelloAPI) doRequest(ctx context.Context, method, path, token string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("key", t.apiKey)
	q.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, method, t.endpoint+path+"?"+q.Encode(), body)
	if err != nil {
		err = fmt.Errorf("failed to create request %s %s: %w", method, path, err)
		logrus.WithError(err).Error("Error creating Trello request")
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := t.client.Do(req)
	if err != nil {
		logrus.WithError(err).Errorf("Failed Trello call %s %s", method, path)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if cerr := res.Body.Close(); cerr != nil {
			logrus.WithError(cerr).Error("Failed to close response body")
		}
	}()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code %d for %s %s", res.StatusCode, method, path)
		logrus.WithError(err).Debugf("Failed call body: %s", data)
		return nil, err
	}
	return data, nil
}

// GetStarredBoards retrieves the user's starred boards keyed by board id.
func (t *TrelloAPI) GetStarredBoards(token string) (map[string]models.Board, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	data, err := t.doRequest(ctx, http.MethodGet, MemberBoardsPath, token, nil, nil, "")
	if err != nil {
		return nil, err
	}

	var boards []boardResponse
	if err = json.Unmarshal(data, &boards); err != nil {
		return nil, fmt.Errorf("failed to parse boards response: %w", err)
	}

	results := make(map[string]models.Board)
	for _, b := range boards {
		if b.Starred {
			results[b.ID] = models.Board{ID: b.ID, Name: b.Name}
		}
	}
	return results, nil
}

// GetBoardLists retrieves the open lists of a board keyed by list id.
func (t *TrelloAPI) GetBoardLists(token, boardID string) (map[string]models.BoardList, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	data, err := t.doRequest(ctx, http.MethodGet, fmt.Sprintf(BoardListsPath, boardID), token, nil, nil, "")
	if err != nil {
		return nil, err
	}

	var lists []listResponse
	if err = json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("failed to parse lists response: %w", err)
	}

	results := make(map[string]models.BoardList)
	for _, l := range lists {
		if !l.Closed {
			results[l.ID] = models.BoardList{ID: l.ID, Name: l.Name}
		}
	}
	return results, nil
}

// CreateList creates a list at the bottom of the board and returns its id.
func (t *TrelloAPI) CreateList(token, listName, boardID string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	query := url.Values{}
	query.Set("name", listName)
	query.Set("idBoard", boardID)
	query.Set("pos", "bottom")

	data, err := t.doRequest(ctx, http.MethodPost, ListsPath, token, query, nil, "")
	if err != nil {
		return "", err
	}

	var created createResponse
	if err = json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("failed to parse create list response: %w", err)
	}
	return created.ID, nil
}

// CreateCard creates a card at the top of the list and returns its id.
// For url content the card name is derived from the page title and the link
// is attached; for image and document content the payload is downloaded from
// its source and uploaded as an attachment. In all non-text cases the
// auto-generated cover is stripped afterwards. Attachment and cover failures
// after the card exists are logged, not rolled back: the card itself is still
// a valid artifact.
func (t *TrelloAPI) CreateCard(token, listID, cardName, content string, contentType models.ContentType) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	query := url.Values{}
	query.Set("idList", listID)
	query.Set("name", cardName)
	query.Set("pos", "top")

	switch contentType {
	case models.ContentText:
		query.Set("desc", content)
	case models.ContentURL:
		query.Set("desc", content)
		if title, err := t.fetchPageTitle(ctx, content); err != nil {
			logrus.WithError(err).Infof("Could not derive page title for %s, keeping default card name", content)
		} else {
			query.Set("name", title)
		}
	}

	data, err := t.doRequest(ctx, http.MethodPost, CardsPath, token, query, nil, "")
	if err != nil {
		return "", err
	}
	var created createResponse
	if err = json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("failed to parse create card response: %w", err)
	}
	cardID := created.ID

	if contentType == models.ContentText {
		return cardID, nil
	}

	switch contentType {
	case models.ContentImage, models.ContentDocument:
		if err = t.uploadAttachment(ctx, token, cardID, cardName, content); err != nil {
			logrus.WithError(err).Errorf("Failed to attach file to card %s", cardID)
		}
	case models.ContentURL:
		attachQuery := url.Values{}
		attachQuery.Set("url", content)
		attachQuery.Set("idAttachmentCover", "null")
		if _, err = t.doRequest(ctx, http.MethodPost, fmt.Sprintf(CardAttachmentsPath, cardID), token, attachQuery, nil, ""); err != nil {
			logrus.WithError(err).Errorf("Failed to attach url to card %s", cardID)
		}
	}

	if err = t.RemoveCardCover(token, cardID); err != nil {
		logrus.WithError(err).Errorf("Failed to remove cover from card %s", cardID)
	}
	return cardID, nil
}

// RemoveCardCover strips the auto-generated attachment cover from a card.
func (t *TrelloAPI) RemoveCardCover(token, cardID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	query := url.Values{}
	query.Set("idAttachmentCover", "null")
	_, err := t.doRequest(ctx, http.MethodPut, fmt.Sprintf(CardPath, cardID), token, query, nil, "")
	return err
}

// uploadAttachment downloads the payload from its source URL and uploads it
// to the card as a multipart file attachment.
func (t *TrelloAPI) uploadAttachment(ctx context.Context, token, cardID, fileName, sourceURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	res, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download attachment from %s: %w", sourceURL, err)
	}
	defer func() {
		if cerr := res.Body.Close(); cerr != nil {
			logrus.WithError(cerr).Error("Failed to close download body")
		}
	}()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d downloading %s", res.StatusCode, sourceURL)
	}
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read attachment payload: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("failed to create multipart form: %w", err)
	}
	if _, err = part.Write(payload); err != nil {
		return fmt.Errorf("failed to write multipart payload: %w", err)
	}
	if err = writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	_, err = t.doRequest(ctx, http.MethodPost, fmt.Sprintf(CardAttachmentsPath, cardID), token, nil, &buf, writer.FormDataContentType())
	return err
}

// fetchPageTitle retrieves a page and extracts its <title> text.
func (t *TrelloAPI) fetchPageTitle(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create page request: %w", err)
	}
	res, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page %s: %w", pageURL, err)
	}
	defer func() {
		if cerr := res.Body.Close(); cerr != nil {
			logrus.WithError(cerr).Error("Failed to close page body")
		}
	}()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d fetching %s", res.StatusCode, pageURL)
	}

	tokenizer := html.NewTokenizer(res.Body)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return "", fmt.Errorf("no title found in %s", pageURL)
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				if tokenizer.Next() == html.TextToken {
					title := strings.TrimSpace(tokenizer.Token().Data)
					if title != "" {
						return title, nil
					}
				}
				return "", fmt.Errorf("empty title in %s", pageURL)
			}
		}
	}
}
