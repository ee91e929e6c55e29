package notification

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzapizza/pizzeria/events"
	"github.com/pizzapizza/pizzeria/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestMailgunSendsForm(t *testing.T) {
	var gotPath, gotUser, gotPass string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"from":    r.PostFormValue("from"),
			"to":      r.PostFormValue("to"),
			"subject": r.PostFormValue("subject"),
			"text":    r.PostFormValue("text"),
		}
		w.Write([]byte(`{"message":"Queued."}`))
	}))
	defer srv.Close()

	client := NewMailgunClient("key-abc", "mg.example.com", "Pizza Pizza <no-reply@example.com>", time.Second)
	client.baseURL = srv.URL

	err := client.Send(context.Background(), Mail{
		To:      "Jane Doe <jane@example.com>",
		Subject: "Order abc successful",
		Text:    "Hello Jane Doe",
	})
	require.NoError(t, err)

	assert.Equal(t, "/v3/mg.example.com/messages", gotPath)
	assert.Equal(t, "api", gotUser)
	assert.Equal(t, "key-abc", gotPass)
	// The configured sender fills an empty From.
	assert.Equal(t, "Pizza Pizza <no-reply@example.com>", gotForm["from"])
	assert.Equal(t, "Jane Doe <jane@example.com>", gotForm["to"])
	assert.Equal(t, "Order abc successful", gotForm["subject"])
	assert.Equal(t, "Hello Jane Doe", gotForm["text"])
}

func TestMailgunRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewMailgunClient("bad-key", "mg.example.com", "sender", time.Second)
	client.baseURL = srv.URL

	assert.Error(t, client.Send(context.Background(), Mail{To: "jane@example.com"}))
}

type stubMailer struct {
	mu    sync.Mutex
	mails []Mail
	err   error
}

func (m *stubMailer) Send(ctx context.Context, mail Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, mail)
	return m.err
}

func (m *stubMailer) sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.mails...)
}

func TestListenerMailsConfirmation(t *testing.T) {
	mailer := &stubMailer{}
	listener := NewListener(mailer, testLogger())
	bus := events.NewBus(testLogger(), 4)

	done := make(chan struct{})
	go func() {
		defer close(done)
		listener.Run(context.Background(), bus.Events())
	}()

	bus.Publish(events.OrderPlaced{
		OrderID: "abc123",
		User: models.User{
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
		},
	})
	bus.Close()
	<-done

	mails := mailer.sent()
	require.Len(t, mails, 1)
	assert.Equal(t, "Jane Doe <jane@example.com>", mails[0].To)
	assert.Contains(t, mails[0].Subject, "abc123")
	assert.Contains(t, mails[0].Text, "Hello Jane Doe")
	assert.Contains(t, mails[0].Text, "20 minutes")
}

func TestListenerStopsOnContextCancel(t *testing.T) {
	mailer := &stubMailer{}
	listener := NewListener(mailer, testLogger())
	bus := events.NewBus(testLogger(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		listener.Run(ctx, bus.Events())
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop on context cancel")
	}
}
