package engine

// RoleMapping binds an annotation key to the role template it controls
// membership for. The owners annotation maps to the project-owner role
// template. Config.Roles can hold further mappings, but internal/config.Load
// builds only the owners one.
type RoleMapping struct {
	AnnotationKey  string
	RoleTemplateID string
}

// Config carries the annotation-key and role-mapping configuration that
// spec.md's CLI surface exposes as flags. Zero-value Config fields should
// never occur in production wiring: the CLI flag definitions in
// cmd/rancher-project-mgmt carry the documented defaults, and
// internal/config.Load reads the resulting flag values.
type Config struct {
	ProjectNameAnnotation string
	ProjectIDAnnotation   string
	ClusterNameAnnotation string
	DefaultCluster        string
	Roles                 []RoleMapping
}
