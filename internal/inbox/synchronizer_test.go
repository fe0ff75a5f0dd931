package inbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifconcept/gvail/internal/model"
	"github.com/ifconcept/gvail/internal/provider"
)

// fakeMessagesAPI is a provider.API whose message list can be swapped
// between polls.
type fakeMessagesAPI struct {
	mu       sync.Mutex
	messages []model.Message
	listErr  error
	detail   map[string]*model.Message
}

func newFakeMessagesAPI() *fakeMessagesAPI {
	return &fakeMessagesAPI{detail: map[string]*model.Message{}}
}

func (f *fakeMessagesAPI) setMessages(msgs []model.Message) {
	f.mu.Lock()
	f.messages = msgs
	f.mu.Unlock()
}

func (f *fakeMessagesAPI) setListErr(err error) {
	f.mu.Lock()
	f.listErr = err
	f.mu.Unlock()
}

func (f *fakeMessagesAPI) Domains(context.Context) ([]model.Domain, error) {
	return nil, nil
}

func (f *fakeMessagesAPI) CreateAccount(
	context.Context, string, string,
) (*provider.Account, error) {
	return nil, nil
}

func (f *fakeMessagesAPI) Token(context.Context, string, string) (string, error) {
	return "", nil
}

func (f *fakeMessagesAPI) Messages(
	ctx context.Context, token string, page int,
) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Message(nil), f.messages...), nil
}

func (f *fakeMessagesAPI) Message(
	ctx context.Context, token, id string,
) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.detail[id]
	if !ok {
		return nil, &provider.NotFoundError{Operation: "GET /messages/" + id}
	}
	copied := *msg
	return &copied, nil
}

func (f *fakeMessagesAPI) DeleteAccount(context.Context, string, string) error {
	return nil
}

func staticToken(tok string) func() string {
	return func() string { return tok }
}

// nextResult runs the armed subscription command and returns its result.
func nextResult(t *testing.T, s *Synchronizer) PollResultMsg {
	t.Helper()

	done := make(chan PollResultMsg, 1)
	go func() {
		msg := s.WaitForNextResult()()
		result, ok := msg.(PollResultMsg)
		if !ok {
			return
		}
		done <- result
	}()

	select {
	case result := <-done:
		return result
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll result")
		return PollResultMsg{}
	}
}

func summaries(n int) []model.Message {
	msgs := make([]model.Message, n)
	for i := range msgs {
		msgs[i] = model.Message{ID: string(rune('a' + i)), Subject: "s"}
	}
	return msgs
}

func TestStartPollsImmediately(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setMessages(summaries(2))

	s := New(api, staticToken("tok"), time.Hour)
	s.Start()
	defer s.Stop()

	result := nextResult(t, s)

	require.NoError(t, result.Err)
	assert.Len(t, result.Messages, 2)
	assert.False(t, result.Manual)
	// The very first poll fills an empty inbox: 2 > 0, so it counts as
	// an arrival.
	assert.True(t, result.NewArrival)
}

func TestStartIsIdempotent(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setMessages(summaries(1))

	s := New(api, staticToken("tok"), time.Hour)
	s.Start()
	s.Start()
	s.Start()
	defer s.Stop()

	nextResult(t, s)

	// A second loop would have published a duplicate immediate fetch.
	select {
	case extra := <-s.resultCh:
		t.Fatalf("unexpected extra result: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewArrivalFiresOncePerGrowth(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setMessages(summaries(1))

	s := New(api, staticToken("tok"), time.Hour)
	s.Start()
	defer s.Stop()

	first := nextResult(t, s)
	assert.True(t, first.NewArrival)

	// Same count: no notification even though the list is re-fetched.
	s.Refresh()
	second := nextResult(t, s)
	assert.True(t, second.Manual)
	assert.False(t, second.NewArrival)

	// Growth by three still signals exactly one arrival.
	api.setMessages(summaries(4))
	s.fetchAndPublish(false)
	third := nextResult(t, s)
	assert.True(t, third.NewArrival)
	assert.Len(t, third.Messages, 4)

	// No further growth, no further signal.
	s.fetchAndPublish(false)
	fourth := nextResult(t, s)
	assert.False(t, fourth.NewArrival)
}

func TestManualRefreshNeverNotifies(t *testing.T) {
	api := newFakeMessagesAPI()

	s := New(api, staticToken("tok"), time.Hour)
	s.Start()
	defer s.Stop()

	nextResult(t, s)

	// Even strict growth stays silent on a manual refresh.
	api.setMessages(summaries(3))
	s.Refresh()
	result := nextResult(t, s)

	assert.True(t, result.Manual)
	assert.False(t, result.NewArrival)
	assert.Len(t, result.Messages, 3)
}

func TestShrinkingListNeverNotifies(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setMessages(summaries(5))

	s := New(api, staticToken("tok"), time.Hour)
	s.Start()
	defer s.Stop()
	nextResult(t, s)

	api.setMessages(summaries(2))
	s.fetchAndPublish(false)
	result := nextResult(t, s)

	assert.False(t, result.NewArrival)
	assert.Len(t, result.Messages, 2)
}

func TestHeldCountRebaselineAfterLocalDelete(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setMessages(summaries(3))

	s := New(api, staticToken("tok"), time.Hour)
	s.Start()
	defer s.Stop()
	nextResult(t, s)

	// The owner hid one message locally; the provider still has all 3.
	// Without rebaselining, the next poll's 3 > 2 would ring a false
	// new-arrival bell.
	s.SetHeldCount(2)

	s.fetchAndPublish(false)
	result := nextResult(t, s)

	assert.True(t, result.NewArrival,
		"provider count above held count is an arrival from the local view")
	assert.Len(t, result.Messages, 3)

	// And once the held list matches again, silence.
	s.fetchAndPublish(false)
	assert.False(t, nextResult(t, s).NewArrival)
}

func TestDeadTokenYieldsExactlyOneUnauthorized(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setListErr(&provider.AuthError{Operation: "GET /messages"})

	s := New(api, staticToken("expired"), time.Hour)

	// A manual refresh queued before the loop starts makes the first
	// run serve two back-to-back fetches against the same dead token.
	s.Refresh()
	s.Start()
	defer s.Stop()

	first := nextResult(t, s)
	assert.True(t, first.Unauthorized)

	select {
	case extra := <-s.resultCh:
		t.Fatalf("second result for the same dead token: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnauthorizedSuppressionLiftsOnNewToken(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setListErr(&provider.AuthError{Operation: "GET /messages"})

	var mu sync.Mutex
	token := "expired"
	tokenFn := func() string {
		mu.Lock()
		defer mu.Unlock()
		return token
	}

	s := New(api, tokenFn, time.Hour)
	s.Start()
	defer s.Stop()

	assert.True(t, nextResult(t, s).Unauthorized)

	// Rotation adopted a fresh token; polling resumes and a later
	// expiry of that token must signal again.
	mu.Lock()
	token = "fresh"
	mu.Unlock()
	api.setListErr(nil)
	api.setMessages(summaries(1))

	s.fetchAndPublish(false)
	ok := nextResult(t, s)
	require.NoError(t, ok.Err)
	assert.Len(t, ok.Messages, 1)

	api.setListErr(&provider.AuthError{Operation: "GET /messages"})
	s.fetchAndPublish(false)
	assert.True(t, nextResult(t, s).Unauthorized)
}

func TestUnauthorizedPublishedWithoutRetry(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setListErr(&provider.AuthError{Operation: "GET /messages"})

	s := New(api, staticToken("expired"), time.Hour)
	s.Start()
	defer s.Stop()

	result := nextResult(t, s)

	assert.True(t, result.Unauthorized)
	assert.NoError(t, result.Err)
	assert.Empty(t, result.Messages)
}

func TestFetchErrorsAreReported(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setListErr(errors.New("network down"))

	s := New(api, staticToken("tok"), time.Hour)
	s.Start()
	defer s.Stop()

	result := nextResult(t, s)

	require.Error(t, result.Err)
	assert.False(t, result.Unauthorized)
}

func TestEmptyTokenSuspendsPolling(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setMessages(summaries(1))

	s := New(api, staticToken(""), time.Hour)
	s.Start()
	defer s.Stop()

	select {
	case result := <-s.resultCh:
		t.Fatalf("poll ran without a token: %+v", result)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStopThenStartResumesPolling(t *testing.T) {
	api := newFakeMessagesAPI()
	api.setMessages(summaries(1))

	s := New(api, staticToken("tok"), time.Hour)
	s.Start()
	nextResult(t, s)
	s.Stop()

	s.Start()
	defer s.Stop()
	result := nextResult(t, s)

	require.NoError(t, result.Err)
	assert.Len(t, result.Messages, 1)
}

func TestLoadDetailTagsGeneration(t *testing.T) {
	api := newFakeMessagesAPI()
	api.detail["m1"] = &model.Message{
		ID:      "m1",
		Subject: "full",
		Text:    "the whole body",
	}

	s := New(api, staticToken("tok"), time.Hour)

	msg := s.LoadDetail("m1", 7)()
	result, ok := msg.(DetailResultMsg)

	require.True(t, ok)
	assert.Equal(t, 7, result.Gen)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Message)
	assert.Equal(t, "the whole body", result.Message.Text)
}

func TestLoadDetailReportsFetchError(t *testing.T) {
	api := newFakeMessagesAPI()

	s := New(api, staticToken("tok"), time.Hour)

	msg := s.LoadDetail("missing", 3)()
	result, ok := msg.(DetailResultMsg)

	require.True(t, ok)
	assert.Equal(t, 3, result.Gen)
	require.Error(t, result.Err)
	assert.Nil(t, result.Message)
}
