package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"
)

// Handler runs one command line on behalf of a connected client. Output
// written to out and errw is relayed to the client line by line. A true
// done result ends the client connection after the command completes.
type Handler func(line string, out, errw io.Writer) (done bool, err error)

// Server answers the control socket for a running viewer. Commands are
// serialized so concurrent clients cannot interleave viewer state changes.
type Server struct {
	path     string
	handler  Handler
	stopCh   chan struct{}
	listener net.Listener
	execMu   sync.Mutex

	// OnShutdown, when set before Run, is called once after the server
	// stops accepting. The viewer uses it to close its window when a
	// client sends SHUTDOWN.
	OnShutdown func()
}

// NewServer prepares a control socket in dir under the given session
// name. It fails when a live server already owns the name and clears a
// stale socket file otherwise.
func NewServer(dir, name string, handler Handler) (*Server, error) {
	if handler == nil {
		return nil, errors.New("nil session handler")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := Path(dir, name)
	if _, err := os.Stat(path); err == nil {
		if Ping(path) == nil {
			return nil, fmt.Errorf("session %s already running", name)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return &Server{
		path:    path,
		handler: handler,
		stopCh:  make(chan struct{}),
	}, nil
}

// Path returns the socket path the server listens on.
func (s *Server) Path() string {
	return s.path
}

// Run listens on the socket and serves connections until Shutdown.
func (s *Server) Run() error {
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	s.listener = ln
	defer closeWithLog("socket listener", ln)
	defer removeWithLog(s.path)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer closeWithLog("socket connection", conn)
	if err := writeln(conn, "READY"); err != nil {
		log.Printf("socket write READY: %v", err)
		return
	}
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "PING":
			if err := writeln(conn, "PONG"); err != nil {
				log.Printf("socket write PONG: %v", err)
				return
			}
		case line == "SHUTDOWN":
			if err := writeln(conn, "DONE OK CLOSE"); err != nil {
				log.Printf("socket write DONE OK CLOSE: %v", err)
			}
			s.Shutdown()
			return
		case strings.HasPrefix(line, "EXEC "):
			command := strings.TrimPrefix(line, "EXEC ")
			s.execMu.Lock()
			out := &taggedWriter{w: conn, tag: "OUT "}
			errW := &taggedWriter{w: conn, tag: "ERR "}
			done, execErr := s.handler(command, out, errW)
			s.execMu.Unlock()
			if execErr != nil {
				msg := strings.ReplaceAll(execErr.Error(), "\n", "\\n")
				if err := writef(conn, "DONE ERR %s\n", msg); err != nil {
					log.Printf("socket write DONE ERR: %v", err)
					return
				}
				continue
			}
			if done {
				if err := writeln(conn, "DONE OK CLOSE"); err != nil {
					log.Printf("socket write DONE OK CLOSE: %v", err)
				}
				return
			}
			if err := writeln(conn, "DONE OK"); err != nil {
				log.Printf("socket write DONE OK: %v", err)
				return
			}
		default:
			if err := writeln(conn, "ERR unknown request"); err != nil {
				log.Printf("socket write error: %v", err)
				return
			}
		}
	}
}

// Shutdown stops the accept loop and removes the socket file. It is safe
// to call more than once and from any goroutine.
func (s *Server) Shutdown() {
	select {
	case <-s.stopCh:
		return
	default:
	}
	close(s.stopCh)
	if s.listener != nil {
		closeWithLog("socket listener", s.listener)
	}
	removeWithLog(s.path)
	if s.OnShutdown != nil {
		s.OnShutdown()
	}
}

type taggedWriter struct {
	w   io.Writer
	tag string
}

func (t *taggedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	buf := make([]byte, len(t.tag)+len(p))
	copy(buf, t.tag)
	copy(buf[len(t.tag):], p)
	if _, err := t.w.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}
