package config

import (
	"flag"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func newTestContext(t *testing.T, values map[string]string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, name := range []string{
		FlagRancherAddr, FlagRancherKey, FlagRancherSecret,
		FlagProjectNameAnnotation, FlagProjectIDAnnotation,
		FlagDefaultCluster, FlagClusterNameAnnotation, FlagOwnersAnnotation,
	} {
		set.String(name, "", "")
	}
	require.NoError(t, set.Parse(nil))
	for k, v := range values {
		require.NoError(t, set.Set(k, v))
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestLoad_MissingRequiredFlagsAggregated(t *testing.T) {
	oldPath := secretPath
	secretPath = filepath.Join(t.TempDir(), "missing")
	defer func() { secretPath = oldPath }()

	c := newTestContext(t, map[string]string{})
	_, err := Load(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FlagRancherAddr)
	assert.Contains(t, err.Error(), FlagRancherKey)
}

func TestLoad_SecretFromFlag(t *testing.T) {
	c := newTestContext(t, map[string]string{
		FlagRancherAddr:   "https://rancher.example.com/v3",
		FlagRancherKey:    "key-id",
		FlagRancherSecret: "shh",
	})
	cfg, err := Load(c)
	require.NoError(t, err)
	assert.Equal(t, "shh", cfg.RancherSecret)
}

func TestLoad_SecretFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret")
	require.NoError(t, ioutil.WriteFile(path, []byte("file-secret\n"), 0600))

	oldPath := secretPath
	secretPath = path
	defer func() { secretPath = oldPath }()

	c := newTestContext(t, map[string]string{
		FlagRancherAddr: "https://rancher.example.com/v3",
		FlagRancherKey:  "key-id",
	})
	cfg, err := Load(c)
	require.NoError(t, err)
	assert.Equal(t, "file-secret", cfg.RancherSecret)
}

func TestLoad_DefaultsAppliedThroughFlagDefaults(t *testing.T) {
	c := newTestContext(t, map[string]string{
		FlagRancherAddr:           "https://rancher.example.com/v3",
		FlagRancherKey:            "key-id",
		FlagRancherSecret:         "shh",
		FlagProjectNameAnnotation: DefaultProjectNameAnnotation,
		FlagProjectIDAnnotation:   DefaultProjectIDAnnotation,
		FlagDefaultCluster:        DefaultCluster,
		FlagClusterNameAnnotation: DefaultClusterNameAnnotation,
		FlagOwnersAnnotation:      DefaultOwnersAnnotation,
	})
	cfg, err := Load(c)
	require.NoError(t, err)
	assert.Equal(t, DefaultProjectNameAnnotation, cfg.Engine.ProjectNameAnnotation)
	assert.Equal(t, DefaultCluster, cfg.Engine.DefaultCluster)
	require.Len(t, cfg.Engine.Roles, 1)
	assert.Equal(t, DefaultOwnersAnnotation, cfg.Engine.Roles[0].AnnotationKey)
}

func TestDefaultSecretPath(t *testing.T) {
	assert.Equal(t, "/var/rancher-project-mgmt/rancher-secret", defaultSecretPath)
}
