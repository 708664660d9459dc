// Package connector provides the host side options to reach a robot,
// either on a direct link or through the MQTT broker.
package connector

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"github.com/robotalks/linebot/pkg/client"
	"github.com/robotalks/linebot/pkg/link"
	"github.com/robotalks/linebot/pkg/link/mqtt"
)

// ErrNoRobot indicates neither a link nor a robot on the broker is set.
var ErrNoRobot = errors.New("robot link or MQTT robot must be specified")

// Config provides common options to connect to a robot.
type Config struct {
	// Link is a direct link URL, see link.Open.
	Link string
	// MQTTBrokerURL is the broker, e.g. mqtt://host:port/topic-prefix.
	MQTTBrokerURL string
	// Robot is type/id of the robot on the broker.
	Robot string
	// GatewayAddr is the listen address of the waiter gateway.
	GatewayAddr string
}

var defaultConfig = Config{
	GatewayAddr: ":8000",
}

func init() {
	if val := os.Getenv("LINEBOT_LINK"); val != "" {
		defaultConfig.Link = val
	}
	if val := os.Getenv("LINEBOT_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("LINEBOT_ROBOT"); val != "" {
		defaultConfig.Robot = val
	}
	if val := os.Getenv("LINEBOT_GATEWAY_ADDR"); val != "" {
		defaultConfig.GatewayAddr = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Link, "link", defaultConfig.Link, "Robot link URL.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.Robot, "robot", defaultConfig.Robot, "Robot type/id on the broker.")
	flag.StringVar(&defaultConfig.GatewayAddr, "addr", defaultConfig.GatewayAddr, "Gateway listen address.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Open opens the connection to the robot.
func (c *Config) Open() (io.ReadWriteCloser, error) {
	if c.Link != "" {
		return link.Open(c.Link)
	}
	if c.MQTTBrokerURL == "" || c.Robot == "" {
		return nil, ErrNoRobot
	}
	ref, err := mqtt.ParseRef(c.Robot)
	if err != nil {
		return nil, err
	}
	return mqtt.Dial(c.MQTTBrokerURL, ref)
}

// Connect opens the connection and runs a client on it until ctx is
// done. Closing the returned closer disconnects.
func (c *Config) Connect(ctx context.Context) (*client.Client, io.Closer, error) {
	conn, err := c.Open()
	if err != nil {
		return nil, nil, err
	}
	cli := client.New(conn)
	go cli.Run(ctx)
	return cli, conn, nil
}

// MustConnect connects and fails on error.
func (c *Config) MustConnect(ctx context.Context) (*client.Client, io.Closer) {
	cli, closer, err := c.Connect(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return cli, closer
}
