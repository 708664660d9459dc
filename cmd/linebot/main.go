package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	env "github.com/robotalks/linebot/pkg/env/controller"
	fx "github.com/robotalks/linebot/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	e := env.NewConfig().MustNewEnv()
	runner := fx.NewRunner().HandleSignals()
	fx.NewLoop().Add(e).RunOrFail(runner.Context)
}
