package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/jhchabran/agora"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

func testEvent() *agora.ReportEvent {
	return &agora.ReportEvent{
		ClientID:    "4b7a",
		ContentID:   12,
		ContentType: agora.AnswerType,
		Reason:      "spam",
		ReportedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMessage(t *testing.T) {
	c := qt.New(t)

	msg := Message(testEvent())
	c.Assert(msg.Text, qt.Equals, "New report on answer #12: spam")
	c.Assert(msg.Attachments, qt.HasLen, 1)
	c.Assert(msg.Attachments[0].Fields, qt.HasLen, 3)
	c.Assert(msg.Attachments[0].Fields[1].Value, qt.Equals, "4b7a")
	c.Assert(msg.Attachments[0].Footer, qt.Equals, "Reported at 2024-03-01T12:00:00Z")
}

func TestHook(t *testing.T) {
	c := qt.New(t)

	c.Run("posts to the webhook", func(c *qt.C) {
		var received slack.WebhookMessage
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Check(json.NewDecoder(r.Body).Decode(&received), qt.IsNil)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		s := NewSlack(srv.URL, zerolog.Nop())
		c.Assert(s.Hook(context.Background(), testEvent()), qt.IsNil)
		c.Assert(received.Text, qt.Equals, "New report on answer #12: spam")
	})

	c.Run("failures are returned", func(c *qt.C) {
		s := NewSlack("http://example.invalid", zerolog.Nop())
		s.post = func(string, *slack.WebhookMessage) error { return errors.New("boom") }

		err := s.Hook(context.Background(), testEvent())
		c.Assert(err, qt.ErrorMatches, "failed to post report to slack: boom")
	})
}
