package tools

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/mcp-mailindex/internal/cache"
	"github.com/brandon/mcp-mailindex/internal/config"
	"github.com/brandon/mcp-mailindex/internal/email"
	"github.com/brandon/mcp-mailindex/internal/fetchparse"
	"github.com/brandon/mcp-mailindex/pkg/types"
)

const sampleUnit = `* 12 FETCH (UID 6026 RFC822.SIZE 9452 INTERNALDATE "05-Mar-2024 10:15:00 +0000" ` +
	`FLAGS (\Seen) ENVELOPE ("Tue, 5 Mar 2024 10:14:02 +0000" "Quarterly report" ` +
	`(("Hello World" NIL "helloworld" "example.com")) NIL NIL ` +
	`((NIL NIL "bob" "example.org")) NIL NIL NIL "<m1@example.com>"))`

type fixture struct {
	registry *Registry
	store    *cache.Store
	emailID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	c, err := cache.NewCache(filepath.Join(t.TempDir(), "cache.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	store := cache.NewStore(c, log)

	cfg := &config.Config{SearchResultLimit: 10, SyncWindow: 100}
	manager, err := email.NewManager(cfg, store, log)
	require.NoError(t, err)

	reg, err := NewRegistry(cfg, manager, store, log)
	require.NoError(t, err)

	accountID, err := store.UpsertAccount(&config.AccountConfig{Name: "work", IMAPHost: "imap.example.com", IMAPPort: 993})
	require.NoError(t, err)
	folderID, err := store.UpsertFolder(accountID, "INBOX", "INBOX", 1)
	require.NoError(t, err)

	entry, err := fetchparse.Parse(sampleUnit)
	require.NoError(t, err)
	require.NoError(t, store.UpsertEntry(accountID, folderID, entry))

	results, err := store.Search(cache.SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)

	return &fixture{registry: reg, store: store, emailID: results[0].ID}
}

func (f *fixture) execute(t *testing.T, name string, params map[string]interface{}) (interface{}, error) {
	t.Helper()
	tool, ok := f.registry.GetTool(name)
	require.True(t, ok, "tool %s not registered", name)
	return tool.Execute(context.Background(), params)
}

func TestRegistry(t *testing.T) {
	f := newFixture(t)

	var names []string
	for _, def := range f.registry.GetToolDefinitions() {
		names = append(names, def["name"].(string))
		assert.NotEmpty(t, def["description"])
		assert.Equal(t, "object", def["inputSchema"].(map[string]interface{})["type"])
	}
	assert.Equal(t, []string{"get_email", "get_thread", "list_folders", "parse_fetch", "search_emails", "sync_folder"}, names)

	_, ok := f.registry.GetTool("send_email")
	assert.False(t, ok)
}

func TestListFolders(t *testing.T) {
	f := newFixture(t)

	res, err := f.execute(t, "list_folders", map[string]interface{}{"account_name": "work"})
	require.NoError(t, err)
	folders := res.([]map[string]interface{})
	require.Len(t, folders, 1)
	assert.Equal(t, "INBOX", folders[0]["path"])
	assert.Equal(t, "work", folders[0]["account_name"])

	// Unknown accounts trigger a sync, which fails without configuration.
	_, err = f.execute(t, "list_folders", map[string]interface{}{"account_name": "missing"})
	assert.Error(t, err)
}

func TestSearchEmails(t *testing.T) {
	f := newFixture(t)

	res, err := f.execute(t, "search_emails", map[string]interface{}{
		"account_name": "work",
		"folder":       "INBOX",
		"sender":       "helloworld",
		"date_from":    "2024-03-01T00:00:00Z",
		"limit":        float64(5),
	})
	require.NoError(t, err)
	summaries := res.([]types.EmailSummary)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Quarterly report", summaries[0].Subject)

	res, err = f.execute(t, "search_emails", map[string]interface{}{"unseen": true})
	require.NoError(t, err)
	assert.Empty(t, res.([]types.EmailSummary))

	_, err = f.execute(t, "search_emails", map[string]interface{}{"folder": "INBOX"})
	assert.Error(t, err)

	_, err = f.execute(t, "search_emails", map[string]interface{}{"date_to": "yesterday"})
	assert.Error(t, err)

	_, err = f.execute(t, "search_emails", map[string]interface{}{"account_name": "missing"})
	assert.Error(t, err)
}

func TestGetEmail(t *testing.T) {
	f := newFixture(t)

	res, err := f.execute(t, "get_email", map[string]interface{}{"email_id": float64(f.emailID)})
	require.NoError(t, err)
	msg := res.(*types.Email)
	assert.Equal(t, uint32(6026), msg.UID)
	assert.Equal(t, int64(9452), msg.Size)
	assert.Equal(t, "<m1@example.com>", msg.MessageID)
	assert.Equal(t, []string{`\Seen`}, msg.Flags)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 14, 2, 0, time.UTC), msg.Date.UTC())

	_, err = f.execute(t, "get_email", map[string]interface{}{})
	assert.Error(t, err)

	_, err = f.execute(t, "get_email", map[string]interface{}{"email_id": "abc"})
	assert.Error(t, err)

	_, err = f.execute(t, "get_email", map[string]interface{}{"email_id": "99999"})
	assert.Error(t, err)
}

func TestGetThread(t *testing.T) {
	f := newFixture(t)

	res, err := f.execute(t, "get_thread", map[string]interface{}{"email_id": float64(f.emailID)})
	require.NoError(t, err)
	thread := res.([]types.EmailSummary)
	require.Len(t, thread, 1)
	assert.Equal(t, f.emailID, thread[0].ID)
}

func TestParseFetch(t *testing.T) {
	f := newFixture(t)

	res, err := f.execute(t, "parse_fetch", map[string]interface{}{"response": sampleUnit})
	require.NoError(t, err)
	entry := res.(*fetchparse.Entry)
	assert.Equal(t, uint32(12), entry.SeqNum)
	assert.Equal(t, "Quarterly report", entry.Subject)
	assert.Equal(t, "bob@example.org", entry.To[0].Address())

	_, err = f.execute(t, "parse_fetch", map[string]interface{}{"response": "* 1 FETCH (UID 1)"})
	assert.ErrorIs(t, err, fetchparse.ErrIncomplete)

	_, err = f.execute(t, "parse_fetch", map[string]interface{}{})
	assert.Error(t, err)
}

func TestSyncFolderWithoutAccounts(t *testing.T) {
	f := newFixture(t)

	_, err := f.execute(t, "sync_folder", map[string]interface{}{})
	assert.EqualError(t, err, "no accounts configured")
}
