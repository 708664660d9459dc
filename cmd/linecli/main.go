package main

import (
	"github.com/robotalks/linebot/pkg/cli/sh"

	_ "github.com/robotalks/linebot/pkg/cli/cmds/waiter"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
