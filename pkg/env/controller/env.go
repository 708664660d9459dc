// Package controller assembles the robot side: pins, command links and the
// MQTT endpoint around a robot.Controller.
package controller

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/env"
	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/hal/remote"
	"github.com/robotalks/linebot/pkg/link"
	"github.com/robotalks/linebot/pkg/link/mqtt"
	"github.com/robotalks/linebot/pkg/robot"
	"github.com/robotalks/linebot/pkg/sim"
)

// Pins backends besides a remote pins URL.
const (
	PinsSim = "sim"
	PinsMem = "mem"
)

// Config provides options to set up the robot.
type Config struct {
	Ref mqtt.Ref

	// Pins is "sim", "mem" or the URL of the pin expander,
	// e.g. serial:///dev/ttyACM0?baud=115200.
	Pins string
	// Links are command links, see link.Open.
	Links env.List
	// Listen accepts a command link over websocket, e.g. ws://:8090/link.
	Listen string
	// MQTTBrokerURL announces the robot and accepts commands on the
	// broker, e.g. mqtt://host:port/topic-prefix.
	MQTTBrokerURL string
	// Tables is the number of table markers on the line.
	Tables int
}

var defaultConfig = Config{
	Ref:    mqtt.Ref{Type: "waiter"},
	Pins:   PinsSim,
	Tables: 8,
}

func init() {
	if val := os.Getenv("LINEBOT_PINS"); val != "" {
		defaultConfig.Pins = val
	}
	if val := os.Getenv("LINEBOT_LINK"); val != "" {
		defaultConfig.Links.Set(val)
	}
	if val := os.Getenv("LINEBOT_LISTEN"); val != "" {
		defaultConfig.Listen = val
	}
	if val := os.Getenv("LINEBOT_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("LINEBOT_TABLES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			defaultConfig.Tables = n
		}
	}
	if val := os.Getenv("LINEBOT_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "type", defaultConfig.Ref.Type, "Robot type")
	flag.StringVar(&defaultConfig.Ref.ID, "id", defaultConfig.Ref.ID, "Robot ID, machine ID if empty")
	flag.StringVar(&defaultConfig.Pins, "pins", defaultConfig.Pins, "Pins: sim, mem or pin expander URL")
	flag.Var(&defaultConfig.Links, "link", "Command link URL, repeatable")
	flag.StringVar(&defaultConfig.Listen, "listen", defaultConfig.Listen, "Websocket command link URL to serve")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.IntVar(&defaultConfig.Tables, "tables", defaultConfig.Tables, "Number of tables")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Links = append(env.List(nil), defaultConfig.Links...)
	return &conf
}

// Env is the assembled robot.
type Env struct {
	Config   *Config
	Robot    *robot.Controller
	Pins     hal.Pins
	Sim      *sim.Sim
	Endpoint *mqtt.Endpoint

	runners []fx.Runnable
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if c.Tables < 1 {
		return nil, fmt.Errorf("invalid number of tables %d", c.Tables)
	}
	if c.Ref.ID == "" {
		c.Ref.ID = env.MachineID()
	}
	conf := robot.DefaultConfig()
	conf.Nav.Tables = c.Tables

	e := &Env{Config: c}
	if err := e.setupPins(conf); err != nil {
		return nil, err
	}
	e.Robot = robot.New(conf, e.Pins)
	if e.Sim == nil {
		// only the simulator places the robot on the home marker
		e.Robot.Machine.Reset()
	}

	for _, u := range c.Links {
		conn, err := link.Open(u)
		if err != nil {
			return nil, err
		}
		e.addLink(u, conn)
	}
	if c.Listen != "" {
		srv, err := link.NewServer(c.Listen)
		if err != nil {
			return nil, fmt.Errorf("invalid listen URL: %v", err)
		}
		e.runners = append(e.runners, fx.NamedRun("ws "+c.Listen, srv))
		e.addLink(c.Listen, srv)
	}
	if c.MQTTBrokerURL != "" {
		if err := e.setupMQTT(); err != nil {
			return nil, fmt.Errorf("create MQTT endpoint error: %v", err)
		}
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

func (e *Env) setupPins(conf robot.Config) error {
	switch e.Config.Pins {
	case PinsSim:
		simConf := sim.DefaultConfig(conf.Nav.Tables)
		simConf.Sensor, simConf.Motor = conf.Sensor, conf.Motor
		e.Sim = sim.New(simConf)
		e.Pins = e.Sim
	case PinsMem:
		e.Pins = hal.NewMemPins()
	default:
		conn, err := link.Open(e.Config.Pins)
		if err != nil {
			return fmt.Errorf("open pins error: %v", err)
		}
		inputs := append([]hal.Pin{conf.Sensor.MarkerPin}, conf.Sensor.LinePins...)
		pins := remote.NewPins(conn, inputs...)
		e.runners = append(e.runners, fx.NamedRun("pins", pins))
		e.Pins = pins
	}
	return nil
}

func (e *Env) setupMQTT() error {
	ep, err := mqtt.NewEndpoint(e.Config.MQTTBrokerURL, e.Config.Ref, mqtt.Meta{
		Description: "line following waiter",
		Tables:      e.Config.Tables,
	})
	if err != nil {
		return err
	}
	e.Endpoint = ep
	e.runners = append(e.runners, fx.NamedRun("mqtt", ep))
	e.addLink("mqtt", ep.Conn)
	name := e.Config.Ref.Name()
	e.Robot.AddObserver(robot.ObserverFunc(func(r robot.Report) {
		ep.PublishState(r.Proto(name))
	}))
	return nil
}

func (e *Env) addLink(name string, conn io.ReadWriter) {
	pump := link.NewPump(name, conn, 0)
	e.Robot.AddChannel(name, pump)
	e.runners = append(e.runners, fx.NamedRun("link "+name, pump))
	glog.V(1).Infof("link %s attached", name)
}

// AddToLoop implements LoopAdder.
func (e *Env) AddToLoop(loop *fx.Loop) {
	if e.Sim != nil {
		loop.Add(e.Sim)
	}
	loop.Add(e.Robot)
	loop.AddRunnable(e.runners...)
}
