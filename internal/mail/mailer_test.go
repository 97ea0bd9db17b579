package mail

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mu        sync.Mutex
	published []Job
	channels  []string
	fail      bool
}

func (f *fakeQueue) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("broker unavailable")
	}
	f.published = append(f.published, Job{ID: "job-1", Data: data, Attributes: attrs})
	f.channels = append(f.channels, channel)
	return "job-1", nil
}

func (f *fakeQueue) Subscribe(context.Context, string, Handler) error { return nil }
func (f *fakeQueue) Close() error                                     { return nil }

func TestQueueMailerPublishesInvitation(t *testing.T) {
	queue := &fakeQueue{}
	mailer := NewQueueMailer(queue, "https://aionic.test", nil)

	err := mailer.SendUserInvitation(context.Background(), "max@aionic.test", "tok-123")
	require.NoError(t, err)

	require.Len(t, queue.published, 1)
	assert.Equal(t, InvitationChannel, queue.channels[0])
	assert.Equal(t, "user-invitation", queue.published[0].Attributes["type"])

	var payload InvitationMail
	require.NoError(t, json.Unmarshal(queue.published[0].Data, &payload))
	assert.Equal(t, "max@aionic.test", payload.Email)
	assert.Equal(t, "tok-123", payload.Token)
	assert.Equal(t, "https://aionic.test/register/tok-123?email=max%40aionic.test", payload.ConfirmURL)
}

func TestQueueMailerPublishFailure(t *testing.T) {
	queue := &fakeQueue{fail: true}
	mailer := NewQueueMailer(queue, "https://aionic.test", nil)

	err := mailer.SendUserInvitation(context.Background(), "max@aionic.test", "tok-123")
	assert.Error(t, err)
}

func TestLogMailerNeverFails(t *testing.T) {
	mailer := NewLogMailer("https://aionic.test", nil)
	assert.NoError(t, mailer.SendUserInvitation(context.Background(), "max@aionic.test", "tok-123"))
}

func TestConfirmURLEscapesEmail(t *testing.T) {
	url := ConfirmURL("https://aionic.test", "tok", "a+b@x.test")
	assert.Equal(t, "https://aionic.test/register/tok?email=a%2Bb%40x.test", url)
}
