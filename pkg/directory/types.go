package directory

// Project is a management-plane grouping one level coarser than a
// namespace; it owns role bindings. Names are not unique on the management
// plane — see Client.GetProject's documented tie-break.
type Project struct {
	ID        string `mapstructure:"id"`
	Name      string `mapstructure:"name"`
	ClusterID string `mapstructure:"clusterId"`
}

// Cluster is a management-plane-registered Kubernetes cluster that a
// Project is created within.
type Cluster struct {
	ID string `mapstructure:"id"`
}

// RoleBinding associates exactly one principal (user or group) with a role
// template on a project.
type RoleBinding struct {
	ID               string `mapstructure:"id"`
	ProjectID        string `mapstructure:"projectId"`
	RoleTemplateID   string `mapstructure:"roleTemplateId"`
	UserPrincipalID  string `mapstructure:"userPrincipalId"`
	GroupPrincipalID string `mapstructure:"groupPrincipalId"`
}

// PrincipalID returns whichever of GroupPrincipalID/UserPrincipalID is set,
// preferring the group ID, matching the client's own selection rule.
func (rb RoleBinding) PrincipalID() string {
	if rb.GroupPrincipalID != "" {
		return rb.GroupPrincipalID
	}
	return rb.UserPrincipalID
}
