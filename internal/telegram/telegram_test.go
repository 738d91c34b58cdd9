package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/cryptonews/internal/bot"
)

type apiCall struct {
	method    string
	chatID    string
	text      string
	caption   string
	parseMode string
	markup    string
	hasPhoto  bool
}

type fakeAPI struct {
	mu     sync.Mutex
	calls  []apiCall
	failOn string
}

func (f *fakeAPI) handler(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	_ = r.ParseMultipartForm(10 << 20)

	call := apiCall{
		method:    method,
		chatID:    r.FormValue("chat_id"),
		text:      r.FormValue("text"),
		caption:   r.FormValue("caption"),
		parseMode: r.FormValue("parse_mode"),
		markup:    r.FormValue("reply_markup"),
	}
	if r.MultipartForm != nil {
		_, call.hasPhoto = r.MultipartForm.File["photo"]
	}

	f.mu.Lock()
	if method != "getMe" {
		f.calls = append(f.calls, call)
	}
	fail := f.failOn == method
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: message text is empty"}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
}

type fakeHandler struct {
	userID, text string
	replies      []bot.Reply
}

func (f *fakeHandler) Handle(ctx context.Context, userID, text string) []bot.Reply {
	f.userID, f.text = userID, text
	return f.replies
}

func newTestBot(t *testing.T, h Handler) (*Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)

	b, err := NewBot("123:abc", h, zerolog.Nop(), tgbot.WithServerURL(srv.URL))
	require.NoError(t, err)
	return b, api
}

func TestNewBotRequiresToken(t *testing.T) {
	_, err := NewBot("", &fakeHandler{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestOnUpdateRoutesAndDelivers(t *testing.T) {
	h := &fakeHandler{replies: []bot.Reply{
		{Text: "📰 Title: x"},
		{Text: "📊 Analysis:\ny", Keyboard: &bot.Keyboard{Rows: [][]string{{"🔄 Latest News"}}}},
	}}
	b, api := newTestBot(t, h)

	b.onUpdate(context.Background(), nil, &models.Update{Message: &models.Message{
		Text: "🔄 Latest News",
		Chat: models.Chat{ID: 42},
	}})

	assert.Equal(t, "42", h.userID)
	assert.Equal(t, "🔄 Latest News", h.text)
	require.Len(t, api.calls, 2)
	assert.Equal(t, "sendMessage", api.calls[0].method)
	assert.Equal(t, "📰 Title: x", api.calls[0].text)
	assert.Empty(t, api.calls[0].markup)
	assert.Contains(t, api.calls[1].markup, "🔄 Latest News")
	assert.Equal(t, "42", api.calls[1].chatID)
}

func TestOnUpdateIgnoresNonText(t *testing.T) {
	h := &fakeHandler{}
	b, api := newTestBot(t, h)

	b.onUpdate(context.Background(), nil, &models.Update{})
	b.onUpdate(context.Background(), nil, &models.Update{Message: &models.Message{Chat: models.Chat{ID: 1}}})

	assert.Empty(t, h.userID)
	assert.Empty(t, api.calls)
}

func TestDeliverPhotoAndMarkdown(t *testing.T) {
	b, api := newTestBot(t, &fakeHandler{})

	err := b.Deliver(context.Background(), 42, []bot.Reply{
		{Photo: []byte("\x89PNG"), Caption: "BTCUSDT Chart (1h)"},
		{Text: "💰 Support the bot:\n`ADDR`\nThanks!", Markdown: true},
	})
	require.NoError(t, err)
	require.Len(t, api.calls, 2)

	assert.Equal(t, "sendPhoto", api.calls[0].method)
	assert.True(t, api.calls[0].hasPhoto)
	assert.Equal(t, "BTCUSDT Chart (1h)", api.calls[0].caption)
	assert.Equal(t, "Markdown", api.calls[1].parseMode)
}

func TestDeliverStopsAtFirstFailure(t *testing.T) {
	b, api := newTestBot(t, &fakeHandler{})
	api.failOn = "sendPhoto"

	err := b.Deliver(context.Background(), 42, []bot.Reply{
		{Photo: []byte("x"), Caption: "c"},
		{Text: "never sent"},
	})
	assert.Error(t, err)
	assert.Len(t, api.calls, 1)
}

func TestDeliverSkipsEmptyText(t *testing.T) {
	b, api := newTestBot(t, &fakeHandler{})
	require.NoError(t, b.Deliver(context.Background(), 42, []bot.Reply{{}}))
	assert.Empty(t, api.calls)
}

func TestKeyboardMarkup(t *testing.T) {
	assert.Nil(t, keyboardMarkup(nil))

	kb := keyboardMarkup(&bot.Keyboard{Rows: [][]string{{"a", "b"}, {"c"}}, OneTime: true})
	require.Len(t, kb.Keyboard, 2)
	assert.Equal(t, "b", kb.Keyboard[0][1].Text)
	assert.Equal(t, "c", kb.Keyboard[1][0].Text)
	assert.True(t, kb.OneTimeKeyboard)
	assert.False(t, kb.ResizeKeyboard)
}

type blockingHandler struct {
	mu      sync.Mutex
	active  int
	maxSeen int
	release chan struct{}
}

func (h *blockingHandler) Handle(ctx context.Context, userID, text string) []bot.Reply {
	h.mu.Lock()
	h.active++
	if h.active > h.maxSeen {
		h.maxSeen = h.active
	}
	h.mu.Unlock()

	<-h.release

	h.mu.Lock()
	h.active--
	h.mu.Unlock()
	return nil
}

func TestOnUpdateSerializesPerChatAndReleasesLocks(t *testing.T) {
	h := &blockingHandler{release: make(chan struct{})}
	b, _ := newTestBot(t, h)

	update := &models.Update{Message: &models.Message{Text: "hi", Chat: models.Chat{ID: 7}}}
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.onUpdate(context.Background(), nil, update)
		}()
	}

	for i := 0; i < 3; i++ {
		select {
		case h.release <- struct{}{}:
		case <-time.After(2 * time.Second):
			t.Fatal("handler never started")
		}
	}
	wg.Wait()

	assert.Equal(t, 1, h.maxSeen)
	b.locksMu.Lock()
	defer b.locksMu.Unlock()
	assert.Empty(t, b.chatLocks)
}
