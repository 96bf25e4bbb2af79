package console

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/KaramelBytes/datasense-cli/internal/datafile"
	"github.com/KaramelBytes/datasense-cli/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeService struct {
	mu         sync.Mutex
	uploads    []string
	queries    []string
	uploadResp *service.UploadResponse
	uploadErr  error
	queryResp  *service.QueryResponse
	queryErr   error
	queryGate  chan struct{}
	queryEnter chan struct{}
}

func (f *fakeService) Upload(ctx context.Context, filename string, content io.Reader) (*service.UploadResponse, error) {
	b, _ := io.ReadAll(content)
	f.mu.Lock()
	f.uploads = append(f.uploads, filename+":"+string(b))
	f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.uploadResp == nil {
		return &service.UploadResponse{}, nil
	}
	return f.uploadResp, nil
}

func (f *fakeService) Query(ctx context.Context, question string) (*service.QueryResponse, error) {
	f.mu.Lock()
	f.queries = append(f.queries, question)
	f.mu.Unlock()
	if f.queryEnter != nil {
		f.queryEnter <- struct{}{}
	}
	if f.queryGate != nil {
		select {
		case <-f.queryGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryResp, nil
}

func (f *fakeService) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestSelectFileRejectsNonCSV(t *testing.T) {
	svc := &fakeService{}
	c := NewController(svc)

	err := c.SelectFile(context.Background(), writeTemp(t, "notes.txt", "hello"))
	assert.ErrorIs(t, err, datafile.ErrNotCSV)

	s := c.Snapshot()
	assert.Nil(t, s.File)
	assert.Equal(t, InvalidFileAlert, s.Alert)
	assert.Zero(t, svc.uploadCount())
}

func TestSelectFileMissingPathRaisesAlert(t *testing.T) {
	svc := &fakeService{}
	c := NewController(svc)
	err := c.SelectFile(context.Background(), filepath.Join(t.TempDir(), "gone.csv"))
	assert.Error(t, err)
	assert.Equal(t, InvalidFileAlert, c.Snapshot().Alert)
	assert.Zero(t, svc.uploadCount())
}

func TestSelectFileUploadsOnce(t *testing.T) {
	svc := &fakeService{uploadResp: &service.UploadResponse{Message: "ok"}}
	c := NewController(svc)

	require.NoError(t, c.SelectFile(context.Background(), writeTemp(t, "data.csv", "a,b\n1,2\n")))

	s := c.Snapshot()
	require.NotNil(t, s.File)
	assert.Equal(t, "data.csv", s.File.Name)
	assert.Equal(t, "ok", s.UploadStatus)
	assert.False(t, s.Uploading)
	assert.Equal(t, []string{"data.csv:a,b\n1,2\n"}, svc.uploads)
}

func TestSelectFileSetsSelectionBeforeUploadResolves(t *testing.T) {
	svc := &fakeService{uploadErr: errors.New("connection refused")}
	c := NewController(svc)
	states, cancel := c.Subscribe(8)
	defer cancel()

	require.NoError(t, c.SelectFile(context.Background(), writeTemp(t, "data.csv", "a\n")))

	first := <-states
	require.NotNil(t, first.File)
	assert.True(t, first.Uploading)
	assert.Empty(t, first.UploadStatus)

	final := c.Snapshot()
	assert.Equal(t, "connection refused", final.UploadStatus)
	assert.True(t, final.UploadFailed)
	assert.Equal(t, "data.csv", final.File.Name)
}

func TestSelectFileDefaultSuccessMessage(t *testing.T) {
	c := NewController(&fakeService{})
	require.NoError(t, c.SelectFile(context.Background(), writeTemp(t, "data.csv", "a\n")))
	assert.Equal(t, DefaultUploadSuccess, c.Snapshot().UploadStatus)
}

func TestAskSuccessLifecycle(t *testing.T) {
	svc := &fakeService{
		queryResp:  &service.QueryResponse{AnalysisResult: "42", Insights: service.Insights{"high confidence"}},
		queryGate:  make(chan struct{}),
		queryEnter: make(chan struct{}, 1),
	}
	c := NewController(svc)
	c.SetDraft("What is the average?")

	done := make(chan error, 1)
	go func() { done <- c.Ask(context.Background(), "What is the average?") }()

	<-svc.queryEnter
	mid := c.Snapshot()
	assert.True(t, mid.Busy)
	assert.False(t, mid.CanAsk())

	close(svc.queryGate)
	require.NoError(t, <-done)

	s := c.Snapshot()
	assert.False(t, s.Busy)
	assert.Equal(t, "", s.Draft)
	assert.Equal(t, []Record{{Question: "What is the average?", Answer: "42", Insights: service.Insights{"high confidence"}}}, s.History)
}

func TestAskFailureRaisesAlert(t *testing.T) {
	svc := &fakeService{queryErr: errors.New("Network Error")}
	c := NewController(svc)
	c.SetDraft("q")

	err := c.Ask(context.Background(), "q")
	assert.EqualError(t, err, "Network Error")

	s := c.Snapshot()
	assert.Empty(t, s.History)
	assert.Equal(t, "Network Error", s.Alert)
	assert.False(t, s.Busy)
	assert.Equal(t, "", s.Draft)
}

func TestAskRejectPolicy(t *testing.T) {
	svc := &fakeService{
		queryResp:  &service.QueryResponse{AnalysisResult: "a"},
		queryGate:  make(chan struct{}),
		queryEnter: make(chan struct{}, 1),
	}
	c := NewController(svc, WithPolicy(PolicyReject))

	done := make(chan error, 1)
	go func() { done <- c.Ask(context.Background(), "first") }()
	<-svc.queryEnter

	before := c.Snapshot()
	assert.ErrorIs(t, c.Ask(context.Background(), "second"), ErrBusy)
	assert.Equal(t, before, c.Snapshot())

	close(svc.queryGate)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"first"}, svc.queries)
}

func TestAskQueuePolicy(t *testing.T) {
	svc := &fakeService{
		queryResp:  &service.QueryResponse{AnalysisResult: "a"},
		queryGate:  make(chan struct{}),
		queryEnter: make(chan struct{}, 2),
	}
	c := NewController(svc, WithPolicy(PolicyQueue))

	first := make(chan error, 1)
	go func() { first <- c.Ask(context.Background(), "first") }()
	<-svc.queryEnter

	second := make(chan error, 1)
	go func() { second <- c.Ask(context.Background(), "second") }()

	select {
	case <-svc.queryEnter:
		t.Fatal("second query started while first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	svc.queryGate <- struct{}{}
	require.NoError(t, <-first)
	<-svc.queryEnter
	svc.queryGate <- struct{}{}
	require.NoError(t, <-second)

	s := c.Snapshot()
	require.Len(t, s.History, 2)
	assert.Equal(t, "first", s.History[0].Question)
	assert.Equal(t, "second", s.History[1].Question)
}

func TestAskQueuePolicyHonoursContext(t *testing.T) {
	svc := &fakeService{
		queryResp:  &service.QueryResponse{AnalysisResult: "a"},
		queryGate:  make(chan struct{}),
		queryEnter: make(chan struct{}, 1),
	}
	c := NewController(svc, WithPolicy(PolicyQueue))
	go func() { _ = c.Ask(context.Background(), "first") }()
	<-svc.queryEnter

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Ask(ctx, "second"), context.DeadlineExceeded)
	close(svc.queryGate)
}

func TestSubscribeKeepsLatestState(t *testing.T) {
	c := NewController(&fakeService{})
	states, cancel := c.Subscribe(1)
	c.SetDraft("a")
	c.SetDraft("ab")
	c.SetDraft("abc")
	assert.Equal(t, "abc", (<-states).Draft)

	cancel()
	c.SetDraft("abcd")
	_, ok := <-states
	assert.False(t, ok, "channel should be closed after cancel")
	cancel()
}

func TestSubscribeCancelReleasesWaitingReader(t *testing.T) {
	c := NewController(&fakeService{})
	states, cancel := c.Subscribe(1)

	done := make(chan bool)
	go func() {
		_, ok := <-states
		done <- ok
	}()
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after cancel")
	}
}

func TestControllerLogsUploadAndQuery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := &fakeService{
		uploadResp: &service.UploadResponse{RequestID: "req-up"},
		queryResp:  &service.QueryResponse{AnalysisResult: "42", RequestID: "req-q"},
	}
	c := NewController(svc, WithLogger(zap.New(core)))

	require.NoError(t, c.SelectFile(context.Background(), writeTemp(t, "data.csv", "a\n")))
	require.NoError(t, c.Ask(context.Background(), "how many rows"))

	finished := logs.FilterMessage("upload finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, "req-up", finished[0].ContextMap()["request_id"])

	answered := logs.FilterMessage("query answered").All()
	require.Len(t, answered, 1)
	assert.Equal(t, "how many rows", answered[0].ContextMap()["question"])
	assert.Equal(t, "req-q", answered[0].ContextMap()["request_id"])
}
