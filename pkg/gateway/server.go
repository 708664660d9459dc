// Package gateway is the restaurant backend: it keeps tables, menu and
// orders, and dispatches the robot when an order is ready.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/golang/glog"

	"github.com/robotalks/linebot/pkg/client"
	fx "github.com/robotalks/linebot/pkg/framework"
)

// DefaultCommandTimeout bounds the wait for a robot response.
const DefaultCommandTimeout = 3 * time.Second

// Server is the HTTP API.
type Server struct {
	Addr           string
	Store          *Store
	Robot          *Robot
	CommandTimeout time.Duration

	app *fiber.App
}

// NewServer creates the API on store and robot.
func NewServer(addr string, store *Store, robot *Robot) *Server {
	s := &Server{
		Addr:           addr,
		Store:          store,
		Robot:          robot,
		CommandTimeout: DefaultCommandTimeout,
	}
	app := fiber.New(fiber.Config{
		AppName:               "Smart Waiter Robot API",
		DisableStartupMessage: true,
		ErrorHandler:          handleError,
	})
	app.Use(cors.New())

	app.Get("/", s.handleRoot)
	app.Get("/tables", s.handleGetTables)
	app.Post("/tables", s.handleCreateTable)
	app.Get("/menu", s.handleGetMenu)
	app.Post("/menu", s.handleCreateMenuItem)
	app.Get("/orders", s.handleGetOrders)
	app.Post("/orders", s.handleCreateOrder)
	app.Get("/orders/:id", s.handleGetOrder)
	app.Put("/orders/:id/status", s.handleUpdateOrderStatus)
	app.Post("/robot/command", s.handleRobotCommand)
	app.Get("/robot/status", s.handleRobotStatus)

	s.app = app
	return s
}

// App returns the fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	glog.Infof("gateway: listening on %s", s.Addr)
	return fx.RunWithContextCancel(ctx, func() {
		if err := s.app.Shutdown(); err != nil {
			glog.Warningf("gateway: shutdown: %v", err)
		}
	}, func() error {
		return s.app.Listen(s.Addr)
	})
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Smart Waiter Robot API"})
}

func (s *Server) handleGetTables(c *fiber.Ctx) error {
	return c.JSON(s.Store.Tables())
}

func (s *Server) handleCreateTable(c *fiber.Ctx) error {
	var t Table
	if err := c.BodyParser(&t); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	t, err := s.Store.AddTable(t)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (s *Server) handleGetMenu(c *fiber.Ctx) error {
	return c.JSON(s.Store.Menu())
}

func (s *Server) handleCreateMenuItem(c *fiber.Ctx) error {
	item := MenuItem{Available: true}
	if err := c.BodyParser(&item); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	item, err := s.Store.AddMenuItem(item)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (s *Server) handleGetOrders(c *fiber.Ctx) error {
	return c.JSON(s.Store.Orders(c.Query("status")))
}

func (s *Server) handleCreateOrder(c *fiber.Ctx) error {
	var o Order
	if err := c.BodyParser(&o); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	o, err := s.Store.AddOrder(o)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(o)
}

func (s *Server) handleGetOrder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}
	o, err := s.Store.Order(id)
	if err != nil {
		return err
	}
	return c.JSON(o)
}

func (s *Server) handleUpdateOrderStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}
	o, table, err := s.Store.SetOrderStatus(id, c.Query("status"))
	if err != nil {
		return err
	}
	if o.Status != OrderReady {
		return c.JSON(o)
	}

	cmd := RobotCommand{Command: CmdGoToTable, TableNumber: table, OrderID: o.ID}
	res, err := s.sendCommand(c, cmd)
	if err != nil {
		glog.Warningf("gateway: order %d: dispatch failed: %v", o.ID, err)
		res.Status, res.Message = "error", err.Error()
	}
	return c.JSON(fiber.Map{"order": o, "robot_command": res})
}

func (s *Server) handleRobotCommand(c *fiber.Ctx) error {
	var cmd RobotCommand
	if err := c.BodyParser(&cmd); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if _, err := cmd.Line(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	res, err := s.sendCommand(c, cmd)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) handleRobotStatus(c *fiber.Ctx) error {
	return c.JSON(s.Robot.Status())
}

func (s *Server) sendCommand(c *fiber.Ctx, cmd RobotCommand) (CommandResult, error) {
	ctx, cancel := context.WithTimeout(c.UserContext(), s.CommandTimeout)
	defer cancel()
	return s.Robot.Send(ctx, cmd)
}

func handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, ErrInvalid):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrNotConnected):
		code = fiber.StatusServiceUnavailable
	case errors.Is(err, client.ErrNoReply):
		code = fiber.StatusGatewayTimeout
	}
	return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
}
