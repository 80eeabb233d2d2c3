// Package engine implements the ReconcileEngine: given one namespace, it
// converges the management plane's project and role-binding state, and the
// namespace's project-ID annotation, toward what the namespace's annotations
// declare. The engine is stateless across calls — every piece of state it
// needs comes from its two collaborators on each call.
package engine

import (
	"context"
	"strings"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"

	"github.com/motusllc/rancherprojectmanager/pkg/directory"
	"github.com/motusllc/rancherprojectmanager/pkg/namespace"
	"github.com/motusllc/rancherprojectmanager/pkg/principal"
)

// Engine reconciles one namespace at a time against the management plane.
// It holds no per-namespace state between calls.
type Engine struct {
	directory directory.Directory
	annotator namespace.Annotator
	cfg       Config
	log       *logrus.Entry
}

// New builds an Engine from its two collaborators and its annotation/role
// configuration.
func New(dir directory.Directory, annotator namespace.Annotator, cfg Config, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{directory: dir, annotator: annotator, cfg: cfg, log: log}
}

// Reconcile converges the management plane and ns's project-ID annotation
// with what ns's annotations declare. A nil error with no side effects means
// either ns carries no project-name annotation, or everything it requests
// was already true.
//
// Every log line the engine writes for this reconciliation is tagged with a
// random correlation ID so an operator can grep one pass's sequence out of
// the log stream; the ID is never persisted or reused across calls. The
// directory client's own request logs do not carry it.
func (e *Engine) Reconcile(ctx context.Context, ns namespace.Namespace) error {
	log := e.log.WithFields(logrus.Fields{"namespace": ns.Name, "trace": uuid.NewRandom().String()})

	projectName, ok := ns.Annotations[e.cfg.ProjectNameAnnotation]
	if !ok {
		return nil
	}
	log = log.WithField("project", projectName)
	log.Info("inspecting namespace for requested project")

	project, err := e.directory.GetProject(ctx, projectName)
	if err != nil {
		return err
	}

	if project == nil {
		cluster := e.cfg.DefaultCluster
		if c, ok := ns.Annotations[e.cfg.ClusterNameAnnotation]; ok {
			cluster = c
		}
		log.WithField("cluster", cluster).Info("requested project did not exist, creating it")
		project, err = e.directory.CreateProject(ctx, projectName, cluster)
		if err != nil {
			return err
		}
	}

	projectID := project.ID
	log = log.WithField("projectId", projectID)

	for _, mapping := range e.cfg.Roles {
		raw, present := ns.Annotations[mapping.AnnotationKey]
		if !present {
			// No opinion: leave whatever is currently bound to this role alone.
			continue
		}
		if err := e.reconcileRole(ctx, log, projectID, mapping.RoleTemplateID, raw); err != nil {
			return err
		}
	}

	if existing, ok := ns.Annotations[e.cfg.ProjectIDAnnotation]; ok && existing == projectID {
		return nil
	}

	log.Info("annotating namespace with resolved project id")
	return e.annotator.Patch(ctx, ns.Name, map[string]string{e.cfg.ProjectIDAnnotation: projectID})
}

// reconcileRole converges membership of one role template on one project
// with the principal tokens in raw. raw is split on commas with no
// trimming — an intentional parity choice with the original, not a bug: an
// operator who writes "a, b" gets a literal " b" token, which will fail to
// resolve and be warned about, not silently corrected.
func (e *Engine) reconcileRole(ctx context.Context, log *logrus.Entry, projectID, roleTemplateID, raw string) error {
	tokens := strings.Split(raw, ",")

	var resolved []principal.Principal
	for _, token := range tokens {
		p, err := e.directory.SearchPrincipal(ctx, token)
		if err != nil {
			return err
		}
		if p == nil {
			log.WithFields(logrus.Fields{"role": roleTemplateID, "token": token}).Warn("owner token did not resolve to a principal, skipping")
			continue
		}
		resolved = append(resolved, *p)
	}

	current, err := e.directory.GetProjectMembers(ctx, projectID, roleTemplateID)
	if err != nil {
		return err
	}

	desired := principal.NewSet(resolved)
	observed := principal.NewSet(current)

	for _, p := range desired.Difference(observed) {
		log.WithFields(logrus.Fields{"role": roleTemplateID, "principal": p.ID}).Info("adding role binding")
		if err := e.directory.AddProjectMember(ctx, projectID, roleTemplateID, p); err != nil {
			return err
		}
	}
	for _, p := range observed.Difference(desired) {
		log.WithFields(logrus.Fields{"role": roleTemplateID, "principal": p.ID}).Info("removing role binding")
		if err := e.directory.RemoveProjectMember(ctx, projectID, roleTemplateID, p); err != nil {
			return err
		}
	}
	return nil
}
