package controller

import (
	"context"
	"errors"
	"io/ioutil"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motusllc/rancherprojectmanager/pkg/namespace"
	"github.com/motusllc/rancherprojectmanager/pkg/pkgerrors"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(ioutil.Discard)
	return logrus.NewEntry(l)
}

type fakeSource struct {
	snapshot    []namespace.Namespace
	snapshotErr error
	events      chan namespace.Event
	streamErr   error
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(chan namespace.Event, 8)}
}

func (f *fakeSource) Snapshot(context.Context) ([]namespace.Namespace, error) {
	return f.snapshot, f.snapshotErr
}

func (f *fakeSource) Stream(context.Context) (<-chan namespace.Event, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.events, nil
}

type fakeReconciler struct {
	errByName map[string]error
	calls     []string
}

func newFakeReconciler() *fakeReconciler {
	return &fakeReconciler{errByName: map[string]error{}}
}

func (f *fakeReconciler) Reconcile(_ context.Context, ns namespace.Namespace) error {
	f.calls = append(f.calls, ns.Name)
	return f.errByName[ns.Name]
}

func TestStartupPass_ReconcilesSnapshotInOrder(t *testing.T) {
	src := newFakeSource()
	src.snapshot = []namespace.Namespace{{Name: "ns1"}, {Name: "ns2"}}
	rec := newFakeReconciler()
	c := New(src, rec, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	close(src.events)
	cancel()
	_ = c.Run(ctx)

	assert.Equal(t, []string{"ns1", "ns2"}, rec.calls)
}

func TestStartupPass_ErrorIsNotCaught(t *testing.T) {
	src := newFakeSource()
	src.snapshotErr = errors.New("boom")
	rec := newFakeReconciler()
	c := New(src, rec, testLogger())

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestWatchLoop_FiltersNonModifiedEvents(t *testing.T) {
	src := newFakeSource()
	rec := newFakeReconciler()
	c := New(src, rec, testLogger())

	src.events <- namespace.Event{Type: namespace.Added, Object: namespace.Namespace{Name: "ns-added"}}
	src.events <- namespace.Event{Type: namespace.Deleted, Object: namespace.Namespace{Name: "ns-deleted"}}
	close(src.events)

	err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rec.calls)
}

func TestWatchLoop_IsolatesRecoverableFailures(t *testing.T) {
	src := newFakeSource()
	rec := newFakeReconciler()
	rec.errByName["ns-mid"] = pkgerrors.New(pkgerrors.ShapeError, "reconcile", "bad shape")
	c := New(src, rec, testLogger())

	src.events <- namespace.Event{Type: namespace.Modified, Object: namespace.Namespace{Name: "ns-first"}}
	src.events <- namespace.Event{Type: namespace.Modified, Object: namespace.Namespace{Name: "ns-mid"}}
	src.events <- namespace.Event{Type: namespace.Modified, Object: namespace.Namespace{Name: "ns-last"}}
	close(src.events)

	err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ns-first", "ns-mid", "ns-last"}, rec.calls)
}

func TestWatchLoop_FatalErrorTerminates(t *testing.T) {
	src := newFakeSource()
	rec := newFakeReconciler()
	rec.errByName["ns-bad"] = errors.New("unexpected runtime panic-equivalent")
	c := New(src, rec, testLogger())

	src.events <- namespace.Event{Type: namespace.Modified, Object: namespace.Namespace{Name: "ns-bad"}}
	src.events <- namespace.Event{Type: namespace.Modified, Object: namespace.Namespace{Name: "ns-never-reached"}}

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"ns-bad"}, rec.calls)
}

func TestWatchLoop_CancelStopsCleanly(t *testing.T) {
	src := newFakeSource()
	rec := newFakeReconciler()
	c := New(src, rec, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not stop after cancellation")
	}
}
