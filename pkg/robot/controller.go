// Package robot assembles the waiter robot: it wires the sensor reader,
// navigation, motor driver and command channels into the control loop.
package robot

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/follow"
	fx "github.com/robotalks/linebot/pkg/framework"
	"github.com/robotalks/linebot/pkg/hal"
	"github.com/robotalks/linebot/pkg/motor"
	"github.com/robotalks/linebot/pkg/msgs"
	"github.com/robotalks/linebot/pkg/nav"
	"github.com/robotalks/linebot/pkg/protocol"
	"github.com/robotalks/linebot/pkg/sensor"
)

// Report is what observers see after a tick changing the mission or
// raising events.
type Report struct {
	Tick     uint64
	Time     time.Duration
	Mission  nav.Mission
	Position nav.TableID
	Events   []nav.Event
}

// Proto converts the report to telemetry.
func (r Report) Proto(robot string) *msgs.RobotState {
	m := &msgs.RobotState{
		Robot:     robot,
		Tick:      r.Tick,
		TimeMs:    int64(r.Time / time.Millisecond),
		State:     r.Mission.State.String(),
		Target:    int32(r.Mission.Target),
		HasTarget: r.Mission.HasTarget,
		Position:  int32(r.Position),
	}
	for _, ev := range r.Events {
		m.Events = append(m.Events, protocol.EventLine(ev))
	}
	return m
}

// Observer receives reports from the control loop. It must not block.
type Observer interface {
	Observe(Report)
}

// ObserverFunc is the func form of Observer.
type ObserverFunc func(Report)

// Observe implements Observer.
func (f ObserverFunc) Observe(r Report) {
	f(r)
}

// Controller is the robot. All state is owned by the control loop.
type Controller struct {
	Config    Config
	Reader    *sensor.Reader
	Driver    *motor.Driver
	Machine   *nav.Machine
	Indicator *Indicator

	channels  []*Channel
	observers []Observer
	sample    sensor.Sample
	reported  nav.Mission
}

// New creates the robot on pins.
func New(conf Config, pins hal.Pins) *Controller {
	c := &Controller{
		Config: conf,
		Reader: sensor.NewReader(pins, conf.Sensor),
		Driver: motor.NewDriver(pins, conf.Motor),
		Indicator: &Indicator{
			Pins:   pins,
			Pin:    conf.LEDPin,
			Count:  conf.BlinkCount,
			Period: conf.BlinkPeriod,
		},
	}
	c.Machine = nav.NewMachine(conf.Nav, c.Driver, follow.NewController(conf.Follow))
	c.reported = c.Machine.Status()
	return c
}

// AddChannel attaches a command channel on stream.
func (c *Controller) AddChannel(name string, stream hal.ByteStream) *Channel {
	ch := NewChannel(name, stream, c.Config.LineCapacity)
	c.channels = append(c.channels, ch)
	return ch
}

// AddObserver registers observers.
func (c *Controller) AddObserver(observers ...Observer) {
	c.observers = append(c.observers, observers...)
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, fx.ControlFunc(c.sense))
	loop.AddController(fx.PrLvControl, fx.ControlFunc(c.decide))
	loop.AddController(fx.PrLvAcuate, fx.ControlFunc(c.actuate))
	loop.AddController(fx.PrLvComm, fx.ControlFunc(c.communicate))
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.report))
}

func (c *Controller) sense(fx.ControlContext) error {
	c.sample = c.Reader.Sample()
	return nil
}

func (c *Controller) decide(ctx fx.ControlContext) error {
	c.Machine.Update(ctx.Time(), c.sample)
	return nil
}

func (c *Controller) actuate(fx.ControlContext) error {
	c.Machine.Actuate(c.sample)
	return nil
}

func (c *Controller) communicate(ctx fx.ControlContext) error {
	for _, ch := range c.channels {
		ch.drain(c.Config.MaxBytesPerTick, func(line string, overflow bool) {
			if overflow {
				glog.V(1).Infof("channel %s: %v", ch.Name, protocol.ErrOverflow)
				c.sendResponse(ch, protocol.ErrLineOverflow)
				return
			}
			c.processCommand(ctx.Time(), ch, protocol.Parse(line))
		})
	}
	return nil
}

func (c *Controller) report(ctx fx.ControlContext) error {
	evs := c.Machine.Events()
	for _, ev := range evs {
		line := protocol.EventLine(ev)
		glog.Infof("event: %s", line)
		for _, ch := range c.channels {
			ch.Send(line)
		}
	}
	for _, ch := range c.channels {
		ch.flush()
	}
	c.Indicator.Update(ctx.Time())

	mission := c.Machine.Status()
	if len(evs) == 0 && mission == c.reported {
		return nil
	}
	c.reported = mission
	pos, _ := c.Machine.Position()
	r := Report{Tick: ctx.Tick(), Time: ctx.Time(), Mission: mission, Position: pos, Events: evs}
	for _, o := range c.observers {
		o.Observe(r)
	}
	return nil
}

func (c *Controller) processCommand(now time.Duration, ch *Channel, cmd protocol.Command) {
	glog.V(1).Infof("channel %s: %s %q", ch.Name, cmd.Kind, cmd.Text)
	if cmd.Kind != protocol.GoToTable {
		c.processSimpleCommand(now, ch, cmd)
		return
	}
	if err := c.Machine.GoToTable(nav.TableID(cmd.Table)); err != nil {
		glog.V(1).Infof("channel %s: %v", ch.Name, err)
		c.sendResponse(ch, protocol.ErrBadTable)
		return
	}
	c.sendResponse(ch, protocol.AckTable(cmd.Table))
}

func (c *Controller) processSimpleCommand(now time.Duration, ch *Channel, cmd protocol.Command) {
	switch cmd.Kind {
	case protocol.ReturnHome:
		c.Machine.ReturnHome()
		c.sendResponse(ch, protocol.AckHome)
	case protocol.Stop:
		c.Machine.Stop()
		c.sendResponse(ch, protocol.AckStop)
	case protocol.Status:
		c.sendStatus(ch)
	case protocol.Blink:
		c.Indicator.Blink(now)
		c.sendResponse(ch, protocol.AckBlink)
	default:
		glog.V(1).Infof("channel %s: %v", ch.Name, cmd.Err())
		c.sendResponse(ch, protocol.ErrUnknown(cmd.Text))
	}
}

func (c *Controller) sendStatus(ch *Channel) {
	c.sendResponse(ch, protocol.StatusLine(c.Machine.Status()))
}

func (c *Controller) sendResponse(ch *Channel, line string) {
	ch.Send(line)
}
