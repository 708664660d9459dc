package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	env "github.com/robotalks/linebot/pkg/env/connector"
	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/gateway"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	runner := fx.NewRunner().HandleSignals()
	ctx := runner.Context

	robot := gateway.NewRobot()
	if conf.Link != "" || conf.Robot != "" {
		cli, closer := conf.MustConnect(ctx)
		defer closer.Close()
		robot.Attach(cli)
		go robot.Watch(ctx, cli.EventChan())
	} else {
		glog.Warning("no robot configured, commands will fail")
	}

	srv := gateway.NewServer(conf.GatewayAddr, gateway.NewStore(), robot)
	if err := runner.Go(srv).Wait(); err != nil {
		log.Fatalln(err)
	}
}
