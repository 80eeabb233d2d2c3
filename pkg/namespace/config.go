package namespace

import (
	"os"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/motusllc/rancherprojectmanager/pkg/pkgerrors"
)

// NewClientset builds a Kubernetes clientset, preferring in-cluster
// configuration when KUBERNETES_SERVICE_HOST is set, falling back to the
// user's local kubeconfig otherwise — the Go-native equivalent of the
// original's load_incluster_config()/load_kube_config() branch.
func NewClientset() (kubernetes.Interface, error) {
	const op = "newClientset"

	var (
		cfg *rest.Config
		err error
	)
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		cfg, err = rest.InClusterConfig()
	} else {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		cfg, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			loadingRules, &clientcmd.ConfigOverrides{}).ClientConfig()
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.TransportError, op, err)
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.TransportError, op, err)
	}
	return client, nil
}
