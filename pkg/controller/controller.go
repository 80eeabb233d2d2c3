// Package controller composes a namespace.Source with the ReconcileEngine:
// it pulls the initial snapshot, reconciles each namespace, then consumes
// the change stream, filtering by event type and isolating per-event
// failures from the process as a whole.
package controller

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/motusllc/rancherprojectmanager/pkg/namespace"
	"github.com/motusllc/rancherprojectmanager/pkg/pkgerrors"
)

// Reconciler is the capability the Controller drives. *engine.Engine
// satisfies it; tests can substitute a fake.
type Reconciler interface {
	Reconcile(ctx context.Context, ns namespace.Namespace) error
}

// Controller runs the startup pass and watch loop described in spec.md
// §4.5. It holds no state of its own across Run calls.
type Controller struct {
	source     namespace.Source
	reconciler Reconciler
	log        *logrus.Entry
}

// New builds a Controller over the given namespace source and reconciler.
func New(source namespace.Source, reconciler Reconciler, log *logrus.Entry) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{source: source, reconciler: reconciler, log: log}
}

// Run executes the startup pass, then the watch loop, blocking until ctx is
// canceled, a fatal error occurs, or the event stream closes (which returns
// nil). Errors during the startup pass are not
// caught — a bulk startup failure is typically a configuration/auth problem,
// and early failure is preferred to partial operation.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.startupPass(ctx); err != nil {
		return err
	}
	return c.watchLoop(ctx)
}

func (c *Controller) startupPass(ctx context.Context) error {
	namespaces, err := c.source.Snapshot(ctx)
	if err != nil {
		return err
	}

	c.log.WithField("count", len(namespaces)).Info("running startup reconciliation pass")
	for _, ns := range namespaces {
		if err := c.reconciler.Reconcile(ctx, ns); err != nil {
			return err
		}
	}
	return nil
}

// watchLoop consumes the namespace change stream indefinitely. MODIFIED
// events are reconciled; everything else is discarded (ADDED is covered by
// the startup pass, DELETED requires no action since the controller does
// not own projects). A recoverable error from one event's reconciliation is
// logged and the loop continues; anything else is fatal and re-raised,
// terminating Run.
func (c *Controller) watchLoop(ctx context.Context) error {
	events, err := c.source.Stream(ctx)
	if err != nil {
		return err
	}

	c.log.Info("entering namespace watch loop")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.handleEvent(ctx, event); err != nil {
				return err
			}
		}
	}
}

func (c *Controller) handleEvent(ctx context.Context, event namespace.Event) error {
	if event.Type != namespace.Modified {
		return nil
	}

	err := c.reconciler.Reconcile(ctx, event.Object)
	if err == nil {
		return nil
	}

	if pkgerrors.IsRecoverable(err) {
		c.log.WithError(err).WithFields(logrus.Fields{"namespace": event.Object.Name, "event": event}).Error("recoverable error reconciling namespace, continuing")
		return nil
	}

	c.log.WithError(err).WithFields(logrus.Fields{"namespace": event.Object.Name, "event": event}).Error("fatal error reconciling namespace, terminating")
	return err
}
