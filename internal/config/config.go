// Package config turns CLI flags into the engine's runtime configuration,
// including the secret-file fallback and required-flag validation spec.md
// §6 describes.
package config

import (
	"io/ioutil"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/motusllc/rancherprojectmanager/pkg/directory"
	"github.com/motusllc/rancherprojectmanager/pkg/engine"
)

// defaultSecretPath is where --rancher-secret is read from when the flag is
// omitted.
const defaultSecretPath = "/var/rancher-project-mgmt/rancher-secret"

// Flag names, exported so main can build the cli.App's flag list from the
// same constants this package reads back.
const (
	FlagRancherAddr           = "rancher-addr"
	FlagRancherKey            = "rancher-key"
	FlagRancherSecret         = "rancher-secret"
	FlagProjectNameAnnotation = "project-name-annotation"
	FlagProjectIDAnnotation   = "project-id-annotation"
	FlagDefaultCluster        = "default-cluster"
	FlagClusterNameAnnotation = "cluster-name-annotation"
	FlagOwnersAnnotation      = "owners-annotation"
)

// Defaults for the optional flags, per spec.md §6.
const (
	DefaultProjectNameAnnotation = "rancher-project-mgmt.motus.com/project-name"
	DefaultProjectIDAnnotation   = "field.cattle.io/projectId"
	DefaultClusterNameAnnotation = "rancher-project-mgmt.motus.com/cluster-name"
	DefaultOwnersAnnotation      = "rancher-project-mgmt.motus.com/owners"
	DefaultCluster               = "local"
)

// Config is the fully-resolved runtime configuration: the management-plane
// connection details plus the engine's annotation/role configuration.
type Config struct {
	RancherAddr   string
	RancherKey    string
	RancherSecret string
	Engine        engine.Config
}

// secretPath is overridable only for tests; it is not a CLI flag, matching
// spec.md's fixed fallback path.
var secretPath = defaultSecretPath

// Load builds a Config from a CLI context, validating all required flags at
// once and reading the secret from disk when --rancher-secret is omitted.
// Multiple missing required flags are reported together via go-multierror
// rather than one at a time.
func Load(c *cli.Context) (*Config, error) {
	var result *multierror.Error

	addr := c.String(FlagRancherAddr)
	if addr == "" {
		result = multierror.Append(result, errors.Errorf("--%s is required", FlagRancherAddr))
	}
	key := c.String(FlagRancherKey)
	if key == "" {
		result = multierror.Append(result, errors.Errorf("--%s is required", FlagRancherKey))
	}

	secret := c.String(FlagRancherSecret)
	if secret == "" {
		read, err := readSecretFile(secretPath)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "--%s was not set and no secret file was found at %s", FlagRancherSecret, secretPath))
		} else {
			secret = read
		}
	}

	if result.ErrorOrNil() != nil {
		return nil, result
	}

	return &Config{
		RancherAddr:   addr,
		RancherKey:    key,
		RancherSecret: secret,
		Engine: engine.Config{
			ProjectNameAnnotation: c.String(FlagProjectNameAnnotation),
			ProjectIDAnnotation:   c.String(FlagProjectIDAnnotation),
			ClusterNameAnnotation: c.String(FlagClusterNameAnnotation),
			DefaultCluster:        c.String(FlagDefaultCluster),
			Roles: []engine.RoleMapping{
				{AnnotationKey: c.String(FlagOwnersAnnotation), RoleTemplateID: directory.RoleOwner},
			},
		},
	}, nil
}

func readSecretFile(path string) (string, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
