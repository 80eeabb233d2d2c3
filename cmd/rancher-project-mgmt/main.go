// Command rancher-project-mgmt reconciles Kubernetes namespaces with
// projects on a Rancher management plane: it creates the project a
// namespace's annotations request, writes back the canonical project-ID
// annotation, and keeps the project's owner role bindings converged with
// the namespace's owners annotation.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	internalconfig "github.com/motusllc/rancherprojectmanager/internal/config"
	"github.com/motusllc/rancherprojectmanager/pkg/controller"
	"github.com/motusllc/rancherprojectmanager/pkg/directory"
	"github.com/motusllc/rancherprojectmanager/pkg/engine"
	"github.com/motusllc/rancherprojectmanager/pkg/namespace"
)

func main() {
	log := logrus.StandardLogger()

	app := cli.NewApp()
	app.Name = "rancher-project-mgmt"
	app.Usage = "reconcile Kubernetes namespaces with Rancher projects"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: internalconfig.FlagRancherAddr, Usage: "URL of the Rancher management API base, including version path"},
		cli.StringFlag{Name: internalconfig.FlagRancherKey, Usage: "Rancher API access key ID"},
		cli.StringFlag{Name: internalconfig.FlagRancherSecret, Usage: "Rancher API access key secret (falls back to a secret file if omitted)"},
		cli.StringFlag{Name: internalconfig.FlagProjectNameAnnotation, Value: internalconfig.DefaultProjectNameAnnotation, Usage: "annotation key carrying the desired project name"},
		cli.StringFlag{Name: internalconfig.FlagProjectIDAnnotation, Value: internalconfig.DefaultProjectIDAnnotation, Usage: "annotation key the controller writes the resolved project ID to"},
		cli.StringFlag{Name: internalconfig.FlagDefaultCluster, Value: internalconfig.DefaultCluster, Usage: "cluster to create new projects in when no cluster-name annotation is set"},
		cli.StringFlag{Name: internalconfig.FlagClusterNameAnnotation, Value: internalconfig.DefaultClusterNameAnnotation, Usage: "annotation key selecting a target cluster for project creation"},
		cli.StringFlag{Name: internalconfig.FlagOwnersAnnotation, Value: internalconfig.DefaultOwnersAnnotation, Usage: "annotation key carrying comma-separated project-owner search tokens"},
	}
	app.Action = func(c *cli.Context) error {
		return run(c, log)
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("rancher-project-mgmt exited with an error")
	}
}

func run(c *cli.Context, log *logrus.Logger) error {
	cfg, err := internalconfig.Load(c)
	if err != nil {
		return err
	}

	clientset, err := namespace.NewClientset()
	if err != nil {
		return err
	}

	dirClient := directory.NewClient(cfg.RancherAddr, cfg.RancherKey, cfg.RancherSecret, http.DefaultClient, log.WithField("component", "directory"))
	source := namespace.NewKubeSource(clientset, log.WithField("component", "namespace-source"))
	annotator := namespace.NewKubeAnnotator(clientset, log.WithField("component", "namespace-annotator"))
	eng := engine.New(dirClient, annotator, cfg.Engine, log.WithField("component", "engine"))
	ctrl := controller.New(source, eng, log.WithField("component", "controller"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return ctrl.Run(ctx)
}
