package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/pkg/logger"
)

type fakeCompiler struct {
	mu       sync.Mutex
	existing bool
	existErr error
	compiled []string
}

func (f *fakeCompiler) Exists(context.Context, model.ReportType, time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing, f.existErr
}

func (f *fakeCompiler) Compile(_ context.Context, authorID uuid.UUID, req *model.CompileReportRequest, trigger string) (*model.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compiled = append(f.compiled, trigger)
	f.existing = true
	return &model.Report{Base: model.Base{ID: uuid.New()}, Type: req.Type, GeneratedBy: authorID}, nil
}

func (f *fakeCompiler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.compiled)
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.DebugLevel, Output: &bytes.Buffer{}})
}

func TestNewReportScheduler_Validates(t *testing.T) {
	c := &fakeCompiler{}

	_, err := NewReportScheduler(c, ReportSchedulerConfig{Interval: time.Hour, Type: model.ReportAdhoc, AuthorID: uuid.New()}, testLogger())
	assert.Error(t, err)

	_, err = NewReportScheduler(c, ReportSchedulerConfig{Interval: time.Hour, Type: model.ReportDaily}, testLogger())
	assert.Error(t, err)

	_, err = NewReportScheduler(c, ReportSchedulerConfig{Type: model.ReportDaily, AuthorID: uuid.New()}, testLogger())
	assert.Error(t, err)
}

func TestRunOnce_CompilesOncePerPeriod(t *testing.T) {
	c := &fakeCompiler{}
	s, err := NewReportScheduler(c, ReportSchedulerConfig{Interval: time.Hour, Type: model.ReportWeekly, AuthorID: uuid.New()}, testLogger())
	require.NoError(t, err)

	created, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, []string{"scheduled"}, c.compiled)
}

func TestRunOnce_LookupError(t *testing.T) {
	c := &fakeCompiler{existErr: errors.New("db down")}
	s, err := NewReportScheduler(c, ReportSchedulerConfig{Interval: time.Hour, Type: model.ReportDaily, AuthorID: uuid.New()}, testLogger())
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, c.count())
}

func TestStart_StopsOnCancel(t *testing.T) {
	c := &fakeCompiler{}
	s, err := NewReportScheduler(c, ReportSchedulerConfig{Interval: 10 * time.Millisecond, Type: model.ReportDaily, AuthorID: uuid.New()}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 1, c.count())
}
