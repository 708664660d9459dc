package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/linebot/pkg/client"
	"github.com/robotalks/linebot/pkg/nav"
	"github.com/robotalks/linebot/pkg/protocol"
)

// ErrNotConnected indicates no robot is attached.
var ErrNotConnected = errors.New("robot not connected")

// Robot commands accepted by the API.
const (
	CmdGoToTable  = "go_to_table"
	CmdReturnHome = "return_home"
	CmdStop       = "stop"
	CmdStatus     = "status"
	CmdBlink      = "blink"
)

// Commander sends a line to the robot and returns the response.
// *client.Client implements it.
type Commander interface {
	Do(ctx context.Context, line string) (string, error)
}

// RobotCommand is the request of POST /robot/command.
type RobotCommand struct {
	Command     string `json:"command"`
	TableNumber int    `json:"table_number,omitempty"`
	OrderID     int    `json:"order_id,omitempty"`
}

// Line encodes the command for the robot.
func (c RobotCommand) Line() (string, error) {
	switch c.Command {
	case CmdGoToTable:
		if c.TableNumber <= 0 {
			return "", fmt.Errorf("%s requires table_number", c.Command)
		}
		return "TABLE " + strconv.Itoa(c.TableNumber), nil
	case CmdReturnHome:
		return "HOME", nil
	case CmdStop:
		return "STOP", nil
	case CmdStatus:
		return "STATUS", nil
	case CmdBlink:
		return "BLINK", nil
	}
	return "", fmt.Errorf("unknown command %q", c.Command)
}

// CommandResult is the outcome of a command.
type CommandResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Reply     string `json:"reply,omitempty"`
}

// RobotStatus is tracked from responses and events.
type RobotStatus struct {
	Connected       bool   `json:"connected"`
	State           string `json:"state,omitempty"`
	Target          int    `json:"target"`
	CurrentPosition string `json:"current_position"`
}

// Robot is the gateway side of the robot link.
type Robot struct {
	cmd    Commander
	status RobotStatus
	lock   sync.Mutex
}

// NewRobot creates a detached Robot.
func NewRobot() *Robot {
	return &Robot{status: RobotStatus{CurrentPosition: positionName(nav.Home)}}
}

// Attach connects the robot through cmd.
func (r *Robot) Attach(cmd Commander) {
	r.lock.Lock()
	r.cmd = cmd
	r.status.Connected = cmd != nil
	r.lock.Unlock()
}

// Detach disconnects the robot.
func (r *Robot) Detach() {
	r.Attach(nil)
}

// Status returns the tracked status.
func (r *Robot) Status() RobotStatus {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.status
}

// Send sends the command and tracks the response.
func (r *Robot) Send(ctx context.Context, c RobotCommand) (CommandResult, error) {
	res := CommandResult{RequestID: uuid.New().String()}
	line, err := c.Line()
	if err != nil {
		return res, err
	}
	r.lock.Lock()
	cmd := r.cmd
	r.lock.Unlock()
	if cmd == nil {
		return res, ErrNotConnected
	}

	glog.V(1).Infof("robot[%s] <- %s", res.RequestID, line)
	reply, err := cmd.Do(ctx, line)
	res.Reply = reply
	var replyErr *client.ReplyError
	switch {
	case errors.As(err, &replyErr):
		res.Status, res.Message = "error", replyErr.Error()
		return res, nil
	case err != nil:
		return res, err
	}
	glog.V(1).Infof("robot[%s] -> %s", res.RequestID, reply)
	res.Status = "success"
	res.Message = describe(c)
	r.track(c, reply)
	return res, nil
}

// Watch updates the status from events until the chan closes.
func (r *Robot) Watch(ctx context.Context, events <-chan nav.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.HandleEvent(ev)
		}
	}
}

// HandleEvent applies an unsolicited event.
func (r *Robot) HandleEvent(ev nav.Event) {
	glog.Infof("robot: %s", protocol.EventLine(ev))
	r.lock.Lock()
	defer r.lock.Unlock()
	switch ev.Kind {
	case nav.EventArrivedTable:
		r.status.State = nav.ArrivedAtTable.String()
		r.status.Target = int(ev.Table)
		r.status.CurrentPosition = positionName(ev.Table)
	case nav.EventArrivedHome:
		r.status.State = nav.ArrivedHome.String()
		r.status.Target = 0
		r.status.CurrentPosition = positionName(nav.Home)
	case nav.EventSensorFault:
		r.status.State = nav.Stopped.String()
		r.status.Target = 0
		r.status.CurrentPosition = "unknown"
	}
}

func (r *Robot) track(c RobotCommand, reply string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	switch c.Command {
	case CmdGoToTable:
		r.status.State = nav.FollowingToTable.String()
		r.status.Target = c.TableNumber
	case CmdReturnHome:
		r.status.State = nav.ReturningHome.String()
		r.status.Target = 0
	case CmdStop:
		r.status.State = nav.Stopped.String()
		r.status.Target = 0
	case CmdStatus:
		if m, err := protocol.ParseStatus(reply); err == nil {
			r.status.State = m.State.String()
			r.status.Target = int(m.Target)
		}
	}
}

func describe(c RobotCommand) string {
	switch c.Command {
	case CmdGoToTable:
		return fmt.Sprintf("Robot moving to table %d", c.TableNumber)
	case CmdReturnHome:
		return "Robot returning home"
	case CmdStop:
		return "Robot stopped"
	case CmdBlink:
		return "Robot blinking"
	}
	return "Robot status"
}

func positionName(t nav.TableID) string {
	if t == nav.Home {
		return "home"
	}
	return "table_" + strconv.Itoa(int(t))
}
