// Package sh provides the operator shell. Commands are registered by
// packages under cli/cmds during init.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/linebot/pkg/client"
	env "github.com/robotalks/linebot/pkg/env/connector"
	"github.com/robotalks/linebot/pkg/link"
	"github.com/robotalks/linebot/pkg/link/mqtt"
	"github.com/robotalks/linebot/pkg/protocol"
)

// CommandTimeout bounds the wait for a reply.
var CommandTimeout = time.Second

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is an open robot connection.
type Conn struct {
	Name   string
	Client *client.Client
	Ctx    context.Context
	Cancel func()
	closer io.Closer
}

// Close disconnects.
func (c *Conn) Close() {
	c.Cancel()
	c.closer.Close()
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Reply is the JSON form of a reply.
type Reply struct {
	Command string `json:"command"`
	Reply   string `json:"reply,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FormatReply renders a reply for display.
func FormatReply(line, reply string, err error, asJSON bool) string {
	if !asJSON {
		if err != nil && reply == "" {
			return "error: " + err.Error()
		}
		return reply
	}
	r := Reply{Command: line, Reply: reply}
	if err != nil {
		r.Error = err.Error()
	}
	out, _ := json.Marshal(&r)
	return string(out)
}

// DoCommand sends a line and prints the reply.
func DoCommand(c *ishell.Context, line string) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	ctx, cancel := context.WithTimeout(s.Conn.Ctx, CommandTimeout)
	defer cancel()
	reply, err := s.Conn.Client.Do(ctx, line)
	c.Println(FormatReply(line, reply, err, s.OutputJSON))
	return err
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Discover lists robots announced on the broker.
func (s *Shell) Discover() ([]mqtt.Ref, error) {
	if s.Config.MQTTBrokerURL == "" {
		return nil, fmt.Errorf("MQTT broker not specified")
	}
	return mqtt.Discover(context.TODO(), s.Config.MQTTBrokerURL, mqtt.DefaultDiscoverTimeout)
}

// ParseTarget tells a link URL from a robot type/id on the broker.
func ParseTarget(target string) (linkURL, robot string) {
	if strings.Contains(target, ":") {
		return target, ""
	}
	return "", target
}

// Connect connects a link URL or a robot type/id on the broker.
func (s *Shell) Connect(target string) error {
	conf := *s.Config
	conf.Link, conf.Robot = ParseTarget(target)
	conn := &Conn{Name: target}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	cli, closer, err := conf.Connect(conn.Ctx)
	if err != nil {
		conn.Cancel()
		return err
	}
	conn.Client, conn.closer = cli, closer
	s.Disconnect()
	s.Conn = conn
	go s.printEvents(conn)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", target))
	return nil
}

func (s *Shell) printEvents(conn *Conn) {
	for {
		select {
		case <-conn.Ctx.Done():
			return
		case ev := <-conn.Client.EventChan():
			line := protocol.EventLine(ev)
			if s.OutputJSON {
				out, _ := json.Marshal(map[string]string{"event": line})
				line = string(out)
			}
			s.Shell.Println(line)
		}
	}
}

// Disconnect disconnects current robot.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	target := s.Config.Link
	if target == "" {
		target = s.Config.Robot
	}
	if s.AutoConnect && target != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", target)
		}
		if err := s.Connect(target); err != nil {
			log.Fatalf("connect %q failed: %v", target, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers robots on the broker.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			refs, err := s.Discover()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				names := make([]string, 0, len(refs))
				for _, ref := range refs {
					names = append(names, ref.Name())
				}
				out, _ := json.Marshal(names)
				c.Println(string(out))
				return
			}
			if len(refs) == 0 {
				c.Println("No robots found")
				return
			}
			for _, ref := range refs {
				c.Println(ref.Name())
			}
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := link.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			for _, port := range ports {
				c.Println("serial://" + port)
			}
		},
	}

	// ConnectCmd connects a robot.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "URL | TYPE/ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var target string
			if len(c.Args) > 0 {
				target = c.Args[0]
			} else {
				refs, err := s.Discover()
				if err != nil {
					c.Err(err)
					return
				}
				switch len(refs) {
				case 0:
					c.Err(fmt.Errorf("no robot discovered"))
					return
				case 1:
					target = refs[0].Name()
				default:
					if !s.Interactive {
						c.Err(fmt.Errorf("more than 1 robots discovered in non-interactive mode"))
						return
					}
					items := make([]string, len(refs))
					for n, ref := range refs {
						items[n] = ref.Name()
					}
					target = items[c.MultiChoice(items, "Which one to connect?")]
				}
			}
			if err := s.Connect(target); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current robot.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	env.SetupFlags()
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
