package link

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/linebot/pkg/framework"
)

// MaxPendingLine is how many bytes of an unterminated line a peer may
// send before they are forwarded anyway. It exceeds any command, so
// such a line always overflows the reader's assembler.
const MaxPendingLine = 128

// Server exposes a line link over websocket. It serves one peer at a
// time: a new connection replaces the current one. Writes without a
// peer are dropped. Received bytes are forwarded line by line, so the
// partial line of a dropped peer never prefixes the next peer's command.
type Server struct {
	Addr string
	Path string

	lock sync.Mutex
	conn *websocket.Conn
	rx   *io.PipeReader
	rxw  *io.PipeWriter
}

// NewServer creates a Server from a URL like ws://0.0.0.0:8090/link.
func NewServer(rawURL string) (*Server, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	s := &Server{Addr: u.Host, Path: path}
	s.rx, s.rxw = io.Pipe()
	return s, nil
}

// Handler returns the websocket handler.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serveConn)
}

// Read implements io.Reader. Lines from all peers are concatenated.
func (s *Server) Read(p []byte) (int, error) {
	return s.rx.Read(p)
}

// Write implements io.Writer.
func (s *Server) Write(p []byte) (int, error) {
	s.lock.Lock()
	conn := s.conn
	s.lock.Unlock()
	if conn == nil {
		return len(p), nil
	}
	if _, err := conn.Write(p); err != nil {
		glog.Warningf("link ws write error: %v", err)
	}
	return len(p), nil
}

// Close implements io.Closer.
func (s *Server) Close() error {
	s.rxw.Close()
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.Path, s.Handler())
	server := &http.Server{Addr: s.Addr, Handler: mux}
	glog.Infof("link ws serving on %s%s", s.Addr, s.Path)
	return fx.RunWithContextCancel(ctx, func() {
		server.Close()
		s.Close()
	}, func() error {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
}

func (s *Server) serveConn(conn *websocket.Conn) {
	s.lock.Lock()
	prev := s.conn
	s.conn = conn
	s.lock.Unlock()
	if prev != nil {
		prev.Close()
	}
	glog.Infof("link ws peer %s connected", conn.Request().RemoteAddr)
	s.forward(conn)
	s.lock.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.lock.Unlock()
	glog.Infof("link ws peer %s disconnected", conn.Request().RemoteAddr)
}

// forward copies complete lines from a peer. An unterminated tail is
// dropped when the peer goes away. If part of it was already forwarded
// for being too long, a terminator ends it instead.
func (s *Server) forward(r io.Reader) {
	var line []byte
	var partial bool
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			line = append(line, b)
			eol := b == '\n' || b == '\r'
			if !eol && len(line) < MaxPendingLine {
				continue
			}
			if _, werr := s.rxw.Write(line); werr != nil {
				return
			}
			partial = !eol
			line = line[:0]
		}
		if err != nil {
			break
		}
	}
	if partial {
		s.rxw.Write([]byte{'\n'})
	}
}
