package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/msgs"
)

// Ref identifies a robot on the broker.
type Ref struct {
	Type string
	ID   string
}

// Name is the topic prefix of the robot.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid tells whether both parts are set.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ParseRef parses type/id.
func ParseRef(s string) (Ref, error) {
	items := strings.Split(s, "/")
	if len(items) != 2 || items[0] == "" || items[1] == "" {
		return Ref{}, fmt.Errorf("invalid robot %q, expect type/id", s)
	}
	return Ref{Type: items[0], ID: items[1]}, nil
}

// Meta is the retained robot metadata.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Tables      int               `json:"tables,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Endpoint is the robot side: it announces the robot, receives command
// lines through Conn and publishes telemetry.
type Endpoint struct {
	Queue *Queue
	Ref   Ref
	Conn  *Conn

	metaJSON []byte
}

// NewEndpoint creates an Endpoint.
func NewEndpoint(brokerURL string, ref Ref, meta Meta) (*Endpoint, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(prefix+ref.Name()+"/meta", nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("linebot:" + ref.Name())
	}
	e := &Endpoint{Queue: NewQueue(opts, prefix), Ref: ref, metaJSON: metaJSON}
	e.Queue.OnConnect = func(q *Queue) {
		q.PubWith(ref.Name()+"/meta", e.metaJSON, 1, true)
	}
	e.Conn = NewConn(e.Queue, ref.Name()+"/cmd", ref.Name()+"/msg")
	return e, nil
}

// PublishState publishes telemetry without waiting.
func (e *Endpoint) PublishState(state *msgs.RobotState) {
	data, err := state.Encode()
	if err != nil {
		glog.Errorf("mqtt: encode state error: %v", err)
		return
	}
	e.Queue.Pub(e.Ref.Name()+"/state", data)
}

// Run implements Runnable.
func (e *Endpoint) Run(ctx context.Context) error {
	token := e.Queue.Connect()
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		glog.Warningf("mqtt: initial connect error: %v, retrying", token.Error())
	}
	<-ctx.Done()
	e.Queue.PubWith(e.Ref.Name()+"/meta", nil, 1, true).WaitTimeout(time.Second)
	e.Conn.Close()
	e.Queue.Close()
	return ctx.Err()
}

// Dial connects to a robot from the host side. Closing the Conn
// disconnects from the broker.
func Dial(brokerURL string, ref Ref) (*Conn, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s error: %v", brokerURL, err)
	}
	conn := NewConn(q, ref.Name()+"/msg", ref.Name()+"/cmd")
	conn.closer = q
	return conn, nil
}

// DefaultDiscoverTimeout is how long Discover collects announcements.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Discover lists robots with retained metadata.
func Discover(ctx context.Context, brokerURL string, timeout time.Duration) ([]Ref, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()
	refCh := make(chan Ref, 16)
	q.Sub("+/+/meta", func(topic string, payload []byte) {
		items := strings.Split(topic, "/")
		if len(items) == 3 && len(payload) > 0 {
			select {
			case refCh <- Ref{Type: items[0], ID: items[1]}:
			default:
			}
		}
	})
	if timeout == 0 {
		timeout = DefaultDiscoverTimeout
	}
	expire := time.After(timeout)
	var refs []Ref
	for {
		select {
		case ref := <-refCh:
			refs = append(refs, ref)
		case <-expire:
			return refs, nil
		case <-ctx.Done():
			return refs, ctx.Err()
		}
	}
}
