// Package directory provides a thin typed capability layer over the
// management plane's REST surface: projects, principals, and role bindings.
// All operations are blocking and fail with one of pkgerrors' tagged kinds.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/motusllc/rancherprojectmanager/pkg/pkgerrors"
	"github.com/motusllc/rancherprojectmanager/pkg/principal"
)

// RoleOwner is the role template the controller manages membership for via
// the owners annotation. Other role templates are never touched.
const RoleOwner = "project-owner"

// Directory is the management-plane capability set the ReconcileEngine
// depends on. Implemented here by Client; fakeable in tests without a
// network dependency.
type Directory interface {
	GetProject(ctx context.Context, name string) (*Project, error)
	CreateProject(ctx context.Context, name, clusterRef string) (*Project, error)
	SearchPrincipal(ctx context.Context, token string) (*principal.Principal, error)
	GetProjectMembers(ctx context.Context, projectID, roleTemplateID string) ([]principal.Principal, error)
	AddProjectMember(ctx context.Context, projectID, roleTemplateID string, p principal.Principal) error
	RemoveProjectMember(ctx context.Context, projectID, roleTemplateID string, p principal.Principal) error
}

// Client is the default Directory implementation, backed by a real
// management-plane HTTP API.
type Client struct {
	t   *transport
	log *logrus.Entry
}

// NewClient builds a Client against the given API base address (including
// version path, e.g. "https://rancher.example.com/v3"), authenticating with
// HTTP basic auth. httpClient defaults to http.DefaultClient if nil.
func NewClient(baseURL, key, secret string, httpClient *http.Client, log *logrus.Entry) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{t: newTransport(baseURL, key, secret, httpClient, log), log: log}
}

// GetProject lists projects filtered by name and returns the first element
// in response order, or nil if there are no matches. This is an observable,
// intentional tie-break: the management plane does not enforce project name
// uniqueness.
func (c *Client) GetProject(ctx context.Context, name string) (*Project, error) {
	const op = "getProject"
	data, err := c.t.list(ctx, "/projects?name="+name, op)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	first, ok := data[0].(map[string]interface{})
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ShapeError, op, "project entry was not an object")
	}
	var p Project
	if err := mapstructure.Decode(first, &p); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ShapeError, op, err)
	}
	return &p, nil
}

// CreateProject resolves clusterRef to a cluster ID and creates a project
// there. There is no pre-flight duplicate check — callers are expected to
// have just observed the project's absence via GetProject.
func (c *Client) CreateProject(ctx context.Context, name, clusterRef string) (*Project, error) {
	const op = "createProject"
	if name == "" || clusterRef == "" {
		return nil, pkgerrors.New(pkgerrors.BadArgument, op, "project name and cluster reference must not be empty")
	}

	clusters, err := c.t.list(ctx, "/cluster?id="+clusterRef, op)
	if err != nil {
		return nil, err
	}
	if len(clusters) == 0 {
		return nil, pkgerrors.New(pkgerrors.NotFound, op, fmt.Sprintf("no cluster found by reference %q", clusterRef))
	}
	clusterObj, ok := clusters[0].(map[string]interface{})
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ShapeError, op, "cluster entry was not an object")
	}
	var cluster Cluster
	if err := mapstructure.Decode(clusterObj, &cluster); err != nil || cluster.ID == "" {
		return nil, pkgerrors.New(pkgerrors.ShapeError, op, "cluster response missing id")
	}

	envelope, _, err := c.t.request(ctx, http.MethodPost, "/projects", map[string]interface{}{
		"name":      name,
		"clusterId": cluster.ID,
	}, op)
	if err != nil {
		return nil, err
	}

	var project Project
	if err := mapstructure.Decode(envelope, &project); err != nil || project.ID == "" {
		return nil, pkgerrors.New(pkgerrors.ShapeError, op, "create project response missing id")
	}
	return &project, nil
}

// SearchPrincipal searches for a user or group by name token, returning the
// first match or nil.
func (c *Client) SearchPrincipal(ctx context.Context, token string) (*principal.Principal, error) {
	const op = "searchPrincipal"
	envelope, _, err := c.t.request(ctx, http.MethodPost, "/principals?action=search", map[string]interface{}{
		"name":          token,
		"principalType": nil,
	}, op)
	if err != nil {
		return nil, err
	}
	data, ok := envelope["data"].([]interface{})
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ShapeError, op, "principal search response did not carry a \"data\" list")
	}
	if len(data) == 0 {
		return nil, nil
	}
	first, ok := data[0].(map[string]interface{})
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ShapeError, op, "principal entry was not an object")
	}
	p, err := principal.FromResponse(op, first)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProjectMembers lists role bindings for (projectID, roleTemplateID) and
// resolves each to its principal, in binding arrival order. An HTTP error
// while resolving any one principal aborts the whole batch and is surfaced
// as a ShapeError suggesting the caller's API key lacks permission.
func (c *Client) GetProjectMembers(ctx context.Context, projectID, roleTemplateID string) ([]principal.Principal, error) {
	const op = "getProjectMembers"
	path := fmt.Sprintf("/projectroletemplatebindings?projectId=%s&roleTemplateId=%s", projectID, roleTemplateID)
	bindings, err := c.t.list(ctx, path, op)
	if err != nil {
		return nil, err
	}

	principals := make([]principal.Principal, 0, len(bindings))
	for _, raw := range bindings {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return nil, pkgerrors.New(pkgerrors.ShapeError, op, "role binding entry was not an object")
		}
		var rb RoleBinding
		if err := mapstructure.Decode(obj, &rb); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.ShapeError, op, err)
		}

		escaped := url.PathEscape(rb.PrincipalID())
		envelope, _, err := c.t.request(ctx, http.MethodGet, "/principals/"+escaped, nil, op)
		if err != nil {
			c.log.WithError(err).Error("encountered error retrieving security principal information, the API key may lack the required access")
			return nil, pkgerrors.Wrap(pkgerrors.ShapeError, op, errors.Wrap(err, "insufficient permissions to resolve role binding principal"))
		}
		p, err := principal.FromResponse(op, envelope)
		if err != nil {
			return nil, err
		}
		principals = append(principals, p)
	}
	return principals, nil
}

// AddProjectMember grants p the role template on the project, unless a
// binding already exists. Idempotent.
func (c *Client) AddProjectMember(ctx context.Context, projectID, roleTemplateID string, p principal.Principal) error {
	const op = "addProjectMember"
	idKey, id := principalIDKey(p)

	existing, err := c.t.list(ctx, fmt.Sprintf("/projectroletemplatebindings?%s=%s&projectId=%s&roleTemplateId=%s", idKey, id, projectID, roleTemplateID), op)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	_, _, err = c.t.request(ctx, http.MethodPost, "/projectroletemplatebindings", map[string]interface{}{
		"projectId":      projectID,
		idKey:            id,
		"roleTemplateId": roleTemplateID,
	}, op)
	return err
}

// RemoveProjectMember revokes p's role template binding on the project, if
// one exists. Idempotent.
func (c *Client) RemoveProjectMember(ctx context.Context, projectID, roleTemplateID string, p principal.Principal) error {
	const op = "removeProjectMember"
	idKey, id := principalIDKey(p)

	existing, err := c.t.list(ctx, fmt.Sprintf("/projectroletemplatebindings?%s=%s&projectId=%s&roleTemplateId=%s", idKey, id, projectID, roleTemplateID), op)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}
	bindingObj, ok := existing[0].(map[string]interface{})
	if !ok {
		return pkgerrors.New(pkgerrors.ShapeError, op, "role binding entry was not an object")
	}
	var rb RoleBinding
	if err := mapstructure.Decode(bindingObj, &rb); err != nil || rb.ID == "" {
		return pkgerrors.New(pkgerrors.ShapeError, op, "role binding response missing id")
	}

	_, _, err = c.t.request(ctx, http.MethodDelete, "/projectroletemplatebindings/"+url.PathEscape(rb.ID), nil, op)
	return err
}

func principalIDKey(p principal.Principal) (key, id string) {
	if p.IsGroup() {
		return "groupPrincipalId", p.ID
	}
	return "userPrincipalId", p.ID
}
