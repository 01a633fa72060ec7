package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/IdeaDrop/TrelloBOT/internal/tg_bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSetup(chatID int64, board string) models.UserSetup {
	return models.UserSetup{
		ChatID:      chatID,
		TrelloToken: "token-" + board,
		BoardID:     board,
		BoardName:   "Board " + board,
		InboxListID: "inbox-" + board,
	}
}

func TestReadMissingFileStartsEmpty(t *testing.T) {
	repo := NewUserSetups(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, repo.ReadFileToMemory())
	assert.False(t, repo.IsUserSetup(1))
}

func TestStoreAndRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setups.json")

	repo := NewUserSetups(path)
	require.NoError(t, repo.ReadFileToMemory())
	require.NoError(t, repo.StoreUserSetup(testSetup(7, "b1")))

	got, ok := repo.GetUserSetup(7)
	require.True(t, ok)
	assert.Equal(t, "b1", got.BoardID)

	// a fresh instance sees the persisted record
	reloaded := NewUserSetups(path)
	require.NoError(t, reloaded.ReadFileToMemory())
	got, ok = reloaded.GetUserSetup(7)
	require.True(t, ok)
	assert.Equal(t, testSetup(7, "b1"), got)
	assert.True(t, reloaded.IsUserSetup(7))
	assert.False(t, reloaded.IsUserSetup(8))
}

func TestStoreOverwritesSingleRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setups.json")

	repo := NewUserSetups(path)
	require.NoError(t, repo.StoreUserSetup(testSetup(7, "first")))
	require.NoError(t, repo.StoreUserSetup(testSetup(7, "second")))

	reloaded := NewUserSetups(path)
	require.NoError(t, reloaded.ReadFileToMemory())
	got, ok := reloaded.GetUserSetup(7)
	require.True(t, ok)
	assert.Equal(t, "second", got.BoardID)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setups.json")

	repo := NewUserSetups(path)
	require.NoError(t, repo.StoreUserSetup(testSetup(1, "b1")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "setups.json", entries[0].Name())
}

func TestFailedSaveLeavesStoreUntouched(t *testing.T) {
	// a non-empty directory at the storage path makes the final rename fail
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "sub"), 0755))

	repo := NewUserSetups(blocked)
	err := repo.StoreUserSetup(testSetup(7, "b1"))
	require.Error(t, err)

	// the failed write must not leave a half-applied record in memory
	_, ok := repo.GetUserSetup(7)
	assert.False(t, ok)
}
