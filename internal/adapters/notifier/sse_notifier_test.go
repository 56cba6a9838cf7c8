package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
	"github.com/lemonchikHere/donminiapp/internal/core/port"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, fields port.Fields)             {}
func (nopLogger) Warn(msg string, fields port.Fields)             {}
func (nopLogger) Error(msg string, err error, fields port.Fields) {}
func (nopLogger) Debug(msg string, fields port.Fields)            {}
func (n nopLogger) WithFields(fields port.Fields) port.LoggerPort { return n }

func receive(t *testing.T, ch clientChannel) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSSENotifier_DeliversToUserClients(t *testing.T) {
	n := NewSSENotifier(nopLogger{})
	ch := n.AddClient("100500")
	defer n.RemoveClient("100500", ch)

	n.Notify(context.Background(), domain.NewNotice("100500", domain.NoticeInfo, "привет"))

	msg := string(receive(t, ch))
	assert.Contains(t, msg, "event: notice\n")
	assert.Contains(t, msg, `"привет"`)
	assert.Contains(t, msg, "\n\n", "SSE frame is terminated by a blank line")
}

func TestSSENotifier_EventForOtherUserNotDelivered(t *testing.T) {
	n := NewSSENotifier(nopLogger{})
	alice := n.AddClient("alice")
	defer n.RemoveClient("alice", alice)

	n.Notify(context.Background(), domain.NewNotice("bob", domain.NoticeInfo, "не тебе"))
	n.Notify(context.Background(), domain.NewNotice("alice", domain.NoticeInfo, "тебе"))

	msg := string(receive(t, alice))
	assert.Contains(t, msg, `"тебе"`)

	select {
	case extra := <-alice:
		t.Fatalf("unexpected extra event: %s", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSENotifier_AllTabsReceive(t *testing.T) {
	n := NewSSENotifier(nopLogger{})
	tab1 := n.AddClient("100500")
	tab2 := n.AddClient("100500")
	defer n.RemoveClient("100500", tab1)
	defer n.RemoveClient("100500", tab2)

	n.Notify(context.Background(), domain.Event{
		Type:   domain.EventFavoriteSettled,
		UserID: "100500",
		Payload: domain.FavoriteSettlement{
			IsFavorite: true,
		},
	})

	assert.Contains(t, string(receive(t, tab1)), "event: favorite_settled\n")
	assert.Contains(t, string(receive(t, tab2)), "event: favorite_settled\n")
}

func TestSSENotifier_RemoveClientStopsDelivery(t *testing.T) {
	n := NewSSENotifier(nopLogger{})
	ch := n.AddClient("100500")
	n.RemoveClient("100500", ch)

	n.Notify(context.Background(), domain.NewNotice("100500", domain.NoticeInfo, "мимо"))

	select {
	case msg := <-ch:
		t.Fatalf("removed client received event: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSENotifier_CloseUserClosesChannels(t *testing.T) {
	n := NewSSENotifier(nopLogger{})
	ch := n.AddClient("100500")

	n.CloseUser("100500")

	select {
	case _, open := <-ch:
		require.False(t, open, "channel must be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("channel was not closed")
	}

	// Повторный вызов без подключений безопасен.
	n.CloseUser("100500")
}
