package waiter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/linebot/pkg/cli/sh"
)

// TableLine validates the table argument and builds the command line.
func TableLine(args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("table number required")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return "", fmt.Errorf("invalid table %q", args[0])
	}
	return "TABLE " + strconv.Itoa(n), nil
}

func simple(line string) func(c *ishell.Context) {
	return sh.MustBeConnected(func(c *ishell.Context) {
		sh.DoCommand(c, line)
	})
}

var (
	// TableCmd sends the robot to a table.
	TableCmd = ishell.Cmd{
		Name:    "table",
		Aliases: []string{"t"},
		Help:    "TABLE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			line, err := TableLine(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, line)
		}),
	}

	// HomeCmd sends the robot home.
	HomeCmd = ishell.Cmd{
		Name:    "home",
		Aliases: []string{"h"},
		Help:    "",
		Func:    simple("HOME"),
	}

	// StopCmd halts the robot.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "",
		Func:    simple("STOP"),
	}

	// StatusCmd queries the mission.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func:    simple("STATUS"),
	}

	// BlinkCmd flashes the indicator.
	BlinkCmd = ishell.Cmd{
		Name:    "blink",
		Aliases: []string{"b"},
		Help:    "",
		Func:    simple("BLINK"),
	}

	// SendCmd sends a raw line.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "LINE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("line required"))
				return
			}
			sh.DoCommand(c, strings.Join(c.Args, " "))
		}),
	}
)

func init() {
	sh.AddCmds(
		&TableCmd,
		&HomeCmd,
		&StopCmd,
		&StatusCmd,
		&BlinkCmd,
		&SendCmd,
	)
}
