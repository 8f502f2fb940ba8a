package main

import (
	"github.com/alecthomas/kingpin/v2"
	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/erro"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revly/internal/app"
)

var (
	Version, Branch, Commit, BuildDate string
)

var (
	configPath = kingpin.Flag("config", "path to config file").Short('c').String()
	verbose    = kingpin.Flag("verbose", "enable debug logging").Short('v').Bool()

	mrCmd     = kingpin.Command("mr", "review a merge request")
	mrProject = mrCmd.Flag("project", "project ID or path").Required().String()
	mrIID     = mrCmd.Flag("iid", "merge request IID").Required().Int()

	fileCmd  = kingpin.Command("file", "review a local file or unified diff")
	filePath = fileCmd.Arg("path", "path to file or diff").Required().String()

	serveCmd = kingpin.Command("serve", "start the webhook server")
)

func main() {
	command := kingpin.Parse()

	var err error
	ctx := contem.New(contem.WithLogger(logze.DefaultPtr()), contem.Exit(&err))
	defer ctx.Shutdown()
	err = run(ctx, command)
	if err != nil {
		logze.DefaultPtr().Error("cannot run", "error", err)
	}
}

func run(ctx contem.Context, command string) error {
	level := logze.LevelInfo
	if *verbose {
		level = logze.LevelDebug
	}
	logze.Init(logze.C().WithConsole().WithLevel(level))

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		return erro.Wrap(err, "load config")
	}

	if command == mrCmd.FullCommand() || command == serveCmd.FullCommand() {
		if err := cfg.ValidateProvider(); err != nil {
			return erro.Wrap(err, "invalid config")
		}
	}

	revly, err := app.New(ctx, cfg)
	if err != nil {
		return erro.Wrap(err, "create service")
	}

	switch command {
	case mrCmd.FullCommand():
		return revly.RunMRReview(ctx, *mrProject, *mrIID)
	case fileCmd.FullCommand():
		return revly.RunFileReview(ctx, *filePath)
	case serveCmd.FullCommand():
		return revly.StartWebhook(ctx)
	}

	return nil
}
