// Package repository persists each user's Trello binding. Records live in
// memory and are rewritten to a JSON file on every mutation, through a temp
// file and rename so a crash never leaves a half-written store.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// UserSetups manages the per-chat setup records in memory and on disk.
type UserSetups struct {
	setups          map[int64]models.UserSetup // In-memory store of setups by chat ID
	storageFilePath string                     // File path for persisting setups
	mu              *sync.RWMutex              // Protects setups from concurrent access
}

// NewUserSetups creates a new UserSetups instance with an empty memory buffer.
// Arguments:
//   - envStoragePath: file path where setups are persisted.
//
// Returns a pointer to a UserSetups.
func NewUserSetups(envStoragePath string) *UserSetups {
	return &UserSetups{
		setups:          make(map[int64]models.UserSetup),
		storageFilePath: envStoragePath,
		mu:              &sync.RWMutex{},
	}
}

// ReadFileToMemory reads setups from the storage file into the in-memory
// buffer. A missing or empty file starts an empty store.
func (m *UserSetups) ReadFileToMemory() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.storageFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("Storage file %s does not exist, starting with empty buffer", m.storageFilePath)
			return nil
		}
		err = fmt.Errorf("failed to read storage file %s: %w", m.storageFilePath, err)
		logrus.WithError(err).Error("Error reading storage file")
		return err
	}

	if len(data) == 0 {
		logrus.Infof("Storage file %s is empty, starting with empty buffer", m.storageFilePath)
		return nil
	}

	var buffer map[int64]models.UserSetup
	if err = json.Unmarshal(data, &buffer); err != nil {
		err = fmt.Errorf("failed to unmarshal storage file %s: %w", m.storageFilePath, err)
		logrus.WithError(err).Error("Error parsing storage file")
		return err
	}

	m.setups = buffer
	logrus.Infof("Loaded %d user setups from %s", len(m.setups), m.storageFilePath)
	return nil
}

// StoreUserSetup overwrites the chat's setup record and persists the whole
// store. The previous record (or absence) stays untouched when the save fails.
func (m *UserSetups) StoreUserSetup(setup models.UserSetup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous, hadPrevious := m.setups[setup.ChatID]
	m.setups[setup.ChatID] = setup
	if err := m.saveToFile(); err != nil {
		if hadPrevious {
			m.setups[setup.ChatID] = previous
		} else {
			delete(m.setups, setup.ChatID)
		}
		return err
	}
	return nil
}

// GetUserSetup retrieves the setup for a chat.
func (m *UserSetups) GetUserSetup(chatID int64) (models.UserSetup, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	setup, ok := m.setups[chatID]
	return setup, ok
}

// IsUserSetup reports whether the chat has completed setup.
func (m *UserSetups) IsUserSetup(chatID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.setups[chatID]
	return ok
}

// saveToFile persists the in-memory buffer to the storage file. Callers must
// hold the write lock.
func (m *UserSetups) saveToFile() error {
	if dir := filepath.Dir(m.storageFilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			err = fmt.Errorf("failed to create storage dir %s: %w", dir, err)
			logrus.WithError(err).Error("Error saving setups to file")
			return err
		}
	}

	data, err := json.Marshal(m.setups)
	if err != nil {
		err = fmt.Errorf("failed to encode setups: %w", err)
		logrus.WithError(err).Error("Error saving setups to file")
		return err
	}

	// Write to a temporary file first
	tempPath := m.storageFilePath + ".tmp"
	if err = os.WriteFile(tempPath, data, 0666); err != nil {
		err = fmt.Errorf("failed to write temp file %s: %w", tempPath, err)
		logrus.WithError(err).Error("Error saving setups to file")
		return err
	}

	// Atomically rename the temp file to the final destination
	if err = os.Rename(tempPath, m.storageFilePath); err != nil {
		err = fmt.Errorf("failed to rename temp file %s to %s: %w", tempPath, m.storageFilePath, err)
		logrus.WithError(err).Error("Error finalizing setups save")
		return err
	}

	logrus.Infof("Saved %d user setups to %s", len(m.setups), m.storageFilePath)
	return nil
}
