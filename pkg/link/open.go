package link

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"

	"go.bug.st/serial"
	"golang.org/x/net/websocket"
)

// DefaultBaudRate is used when a serial URL has no baud parameter.
const DefaultBaudRate = 9600

// Open opens a transport by URL:
//
//	serial:///dev/ttyUSB0?baud=9600
//	ws://host:port/path (dial)
//	mem:name            (in-process pipe, see Pipe)
//	stdio:              (stdin/stdout)
func Open(rawURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "serial":
		return openSerial(u)
	case "ws", "wss":
		origin := "http://" + u.Host + "/"
		conn, err := websocket.Dial(rawURL, "", origin)
		if err != nil {
			return nil, fmt.Errorf("dial %s error: %v", rawURL, err)
		}
		return conn, nil
	case "mem":
		name := u.Opaque
		if name == "" {
			name = u.Host + u.Path
		}
		return Pipe(name), nil
	case "stdio":
		return stdio{}, nil
	}
	return nil, fmt.Errorf("unsupported link %q", rawURL)
}

func openSerial(u *url.URL) (io.ReadWriteCloser, error) {
	dev := u.Path
	if dev == "" {
		dev = u.Opaque
	}
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if baud := u.Query().Get("baud"); baud != "" {
		rate, err := strconv.Atoi(baud)
		if err != nil {
			return nil, fmt.Errorf("invalid baud rate %q: %v", baud, err)
		}
		mode.BaudRate = rate
	}
	port, err := serial.Open(dev, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s error: %v", dev, err)
	}
	return port, nil
}

// Ports lists the serial ports on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

var (
	pipes     = make(map[string]net.Conn)
	pipesLock sync.Mutex
)

// Pipe returns one end of a named in-process pipe. The first call
// creates the pipe, the second call with the same name returns the
// other end.
func Pipe(name string) io.ReadWriteCloser {
	pipesLock.Lock()
	defer pipesLock.Unlock()
	if end, ok := pipes[name]; ok {
		delete(pipes, name)
		return end
	}
	a, b := net.Pipe()
	pipes[name] = b
	return a
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdio) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdio) Close() error {
	return nil
}
