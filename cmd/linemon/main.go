package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/linebot/pkg/link/mqtt"
	"github.com/robotalks/linebot/pkg/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/linebot/"
)

func init() {
	if val := os.Getenv("LINEBOT_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if !strings.HasSuffix(topic, "/state") {
			log.Printf("%s: %s", topic, strings.TrimSpace(string(payload)))
			return
		}
		state, err := msgs.DecodeRobotState(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, state.String())
	}))
	<-(chan struct{})(nil)
}
