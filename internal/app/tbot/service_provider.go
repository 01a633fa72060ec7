// Package tbot provides dependency injection and service management for the
// Trello collector bot components.
package tbot

import (
	"fmt"
	"sync"

	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/api"
	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/conversation"
	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/repository"
	botServ "github.com/IdeaDrop/TrelloBOT/internal/tg_bot/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// ServiceProvider manages the dependency injection for bot components.
type ServiceProvider struct {
	// Services
	trelloService botServ.Trello

	// Repositories
	setupsRepo botServ.UserSetupRepository

	// Conversation sessions
	sessions *conversation.Manager

	// Bot API
	botAPI *tgbotapi.BotAPI

	// Bot service
	botService *botServ.TgBotServices

	// Config values
	trelloEndpoint string
	trelloAPIKey   string
	storagePath    string
	askForList     bool

	trelloOnce     sync.Once
	setupsOnce     sync.Once
	sessionsOnce   sync.Once
	botAPIOnce     sync.Once
	botServiceOnce sync.Once
}

// NewServiceProvider creates a new instance of the service provider.
func NewServiceProvider(trelloEndpoint, trelloAPIKey, storagePath string, askForList bool) *ServiceProvider {
	if trelloEndpoint == "" || trelloAPIKey == "" || storagePath == "" {
		logrus.Fatal("All ServiceProvider configuration fields must be non-empty")
	}
	return &ServiceProvider{
		trelloEndpoint: trelloEndpoint,
		trelloAPIKey:   trelloAPIKey,
		storagePath:    storagePath,
		askForList:     askForList,
	}
}

// TrelloService returns the Trello gateway.
func (s *ServiceProvider) TrelloService() botServ.Trello {
	s.trelloOnce.Do(func() {
		s.trelloService = api.NewTrelloAPI(s.trelloEndpoint, s.trelloAPIKey)
		logrus.Info("TrelloService initialized")
	})
	return s.trelloService
}

// SetupRepository returns the durable user setup store, loaded from disk.
func (s *ServiceProvider) SetupRepository() botServ.UserSetupRepository {
	s.setupsOnce.Do(func() {
		s.setupsRepo = repository.NewUserSetups(s.storagePath)
		if err := s.setupsRepo.ReadFileToMemory(); err != nil {
			logrus.Errorf("Failed to read user setups from file: %v", err)
		} else {
			logrus.Info("SetupRepository initialized and state loaded")
		}
	})
	return s.setupsRepo
}

// SessionManager returns the conversation session manager.
func (s *ServiceProvider) SessionManager() *conversation.Manager {
	s.sessionsOnce.Do(func() {
		s.sessions = conversation.NewManager()
		logrus.Info("SessionManager initialized")
	})
	return s.sessions
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI(token string) (*tgbotapi.BotAPI, error) {
	var err error
	s.botAPIOnce.Do(func() {
		s.botAPI, err = tgbotapi.NewBotAPI(token)
		if err != nil {
			logrus.Errorf("Failed to initialize BotAPI: %v", err)
			s.botAPI = nil
		}
	})
	if s.botAPI == nil {
		return nil, fmt.Errorf("bot API not initialized")
	}
	logrus.Info("BotApi initialized")
	return s.botAPI, nil
}

// BotService returns the main bot service.
func (s *ServiceProvider) BotService(botAPI *tgbotapi.BotAPI) *botServ.TgBotServices {
	s.botServiceOnce.Do(func() {
		s.botService = botServ.NewTgBot(
			s.TrelloService(),
			s.SetupRepository(),
			s.SessionManager(),
			botAPI,
			s.askForList,
		)
		logrus.Info("BotService initialized")
	})
	return s.botService
}
