package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
)

var errSocketClosed = errors.New("socket closed by server")

// Send connects to a session and runs each command in order, relaying
// tagged output to stdout and stderr. A server-initiated close after a
// command is not an error.
func Send(dir, name string, commands []string, stdout, stderr io.Writer) error {
	conn, err := net.Dial("unix", Path(dir, name))
	if err != nil {
		return err
	}
	defer closeWithLog("socket client", conn)
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return err
		}
		return errors.New("socket closed")
	}
	if scanner.Text() != "READY" {
		return fmt.Errorf("unexpected greeting: %s", scanner.Text())
	}
	for _, cmd := range commands {
		if err := execute(conn, scanner, cmd, stdout, stderr); err != nil {
			if errors.Is(err, errSocketClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}

func execute(conn net.Conn, scanner *bufio.Scanner, cmd string, stdout, stderr io.Writer) error {
	if _, err := fmt.Fprintf(conn, "EXEC %s\n", cmd); err != nil {
		return err
	}
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "OUT "):
			if err := writeln(stdout, strings.TrimPrefix(line, "OUT ")); err != nil {
				return err
			}
		case strings.HasPrefix(line, "ERR "):
			if err := writeln(stderr, strings.TrimPrefix(line, "ERR ")); err != nil {
				return err
			}
		case strings.HasPrefix(line, "DONE OK"):
			if strings.HasSuffix(line, "CLOSE") {
				return errSocketClosed
			}
			return nil
		case strings.HasPrefix(line, "DONE ERR "):
			msg := strings.TrimPrefix(line, "DONE ERR ")
			return errors.New(strings.ReplaceAll(msg, "\\n", "\n"))
		default:
			if err := writeln(stdout, line); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

// Attach runs an interactive prompt against a session, reading command
// lines from stdin until the input ends or the server closes.
func Attach(dir, name string, stdin io.Reader, stdout, stderr io.Writer) error {
	conn, err := net.Dial("unix", Path(dir, name))
	if err != nil {
		return err
	}
	defer closeWithLog("socket client", conn)
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return err
		}
		return errors.New("socket closed")
	}
	if scanner.Text() != "READY" {
		return fmt.Errorf("unexpected greeting: %s", scanner.Text())
	}
	input := bufio.NewScanner(stdin)
	for {
		if _, err := fmt.Fprint(stdout, "> "); err != nil {
			return err
		}
		if !input.Scan() {
			return input.Err()
		}
		if err := execute(conn, scanner, input.Text(), stdout, stderr); err != nil {
			if errors.Is(err, errSocketClosed) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// Stop asks a session to shut down. A session that is already gone is
// not an error; a stale socket file is removed.
func Stop(dir, name string) error {
	path := Path(dir, name)
	conn, err := net.Dial("unix", path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		rmErr := os.Remove(path)
		if rmErr == nil || errors.Is(rmErr, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer closeWithLog("socket client", conn)
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return scanner.Err()
	}
	if scanner.Text() != "READY" {
		return fmt.Errorf("unexpected greeting: %s", scanner.Text())
	}
	if _, err := fmt.Fprintln(conn, "SHUTDOWN"); err != nil {
		return err
	}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "DONE ") {
			removeWithLog(path)
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	removeWithLog(path)
	return nil
}
