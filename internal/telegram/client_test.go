package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendMessage(t *testing.T) {
	api := newFakeAPI(t)

	msg, err := api.client().SendMessage(context.Background(), "@signals", "<b>hi</b>", singleButton("Go", "buy:M"))
	require.NoError(t, err)
	assert.Equal(t, 7, msg.MessageID)
	assert.Equal(t, int64(-100), msg.Chat.ID)

	calls := api.callsTo("sendMessage")
	require.Len(t, calls, 1)
	body := calls[0].Body
	assert.Equal(t, "@signals", body["chat_id"])
	assert.Equal(t, "HTML", body["parse_mode"])

	markup := body["reply_markup"].(map[string]any)
	rows := markup["inline_keyboard"].([]any)
	button := rows[0].([]any)[0].(map[string]any)
	assert.Equal(t, "Go", button["text"])
	assert.Equal(t, "buy:M", button["callback_data"])
}

func TestClient_APIError(t *testing.T) {
	api := newFakeAPI(t)
	api.fail["sendMessage"] = "Bad Request: chat not found"

	_, err := api.client().SendMessage(context.Background(), "1", "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Contains(t, err.Error(), "400")
}

func TestClient_WrongToken(t *testing.T) {
	api := newFakeAPI(t)
	c := NewClient("other", api.server.URL, time.Second)

	err := c.AnswerCallbackQuery(context.Background(), "q", "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")
}

func TestClient_GetUpdates(t *testing.T) {
	api := newFakeAPI(t)
	api.results["getUpdates"] = `[
		{"update_id":10,"message":{"message_id":1,"from":{"id":5},"chat":{"id":5},"text":"/start"}},
		{"update_id":11,"callback_query":{"id":"cb","from":{"id":6},"data":"sell:M:14"}}
	]`

	updates, err := api.client().GetUpdates(context.Background(), 10, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "/start", updates[0].Message.Text)
	assert.Equal(t, int64(6), updates[1].CallbackQuery.From.ID)
	assert.Equal(t, "sell:M:14", updates[1].CallbackQuery.Data)

	body := api.callsTo("getUpdates")[0].Body
	assert.EqualValues(t, 10, body["offset"])
	assert.EqualValues(t, 30, body["timeout"])
	assert.ElementsMatch(t, []any{"message", "callback_query"}, body["allowed_updates"])
}

func TestClient_EditAndAnswer(t *testing.T) {
	api := newFakeAPI(t)
	c := api.client()

	require.NoError(t, c.EditMessageText(context.Background(), -100, 7, "done"))
	require.NoError(t, c.AnswerCallbackQuery(context.Background(), "q1", "Expired", true))

	edit := api.callsTo("editMessageText")[0].Body
	assert.EqualValues(t, -100, edit["chat_id"])
	assert.EqualValues(t, 7, edit["message_id"])
	assert.Equal(t, "done", edit["text"])

	answer := api.callsTo("answerCallbackQuery")[0].Body
	assert.Equal(t, "q1", answer["callback_query_id"])
	assert.Equal(t, "Expired", answer["text"])
	assert.Equal(t, true, answer["show_alert"])
}
