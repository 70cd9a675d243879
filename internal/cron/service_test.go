package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/surprisebag-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLock struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	require.NoError(t, err)
	return svc
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "ok"}
	failing := &testJob{name: "failing", err: errors.New("boom")}
	lock := &fakeLock{}
	svc := newService(t, lock, ok, failing)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunOnceSkipsWhenLockIsHeld(t *testing.T) {
	job := &testJob{name: "job"}
	lock := &fakeLock{held: true}
	svc := newService(t, lock, job)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
	assert.Zero(t, lock.releases)
}

func TestRunStopsWithContext(t *testing.T) {
	job := &testJob{name: "job"}
	svc := newService(t, &fakeLock{}, job)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, job.runs)
}

func TestNewServiceRequiresLoggerAndLock(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logger.New(logger.Options{})})
	assert.Error(t, err)
}

func TestRegistrySkipsNilAndCopies(t *testing.T) {
	a, b := &testJob{name: "a"}, &testJob{name: "b"}
	registry := NewRegistry(a, nil)
	registry.Register(nil)
	registry.Register(b)

	assert.Equal(t, []string{"a", "b"}, registry.Names())
	jobs := registry.Jobs()
	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}
