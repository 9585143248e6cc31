// Package session implements the viewer control socket: a line protocol
// over unix sockets that lets the CLI drive a running viewer. A viewer
// serves one socket named after its session; clients ping, send command
// lines and read tagged output.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

func closeWithLog(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Printf("%s: close: %v", name, err)
	}
}

func removeWithLog(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("remove %s: %v", path, err)
	}
}

// ResolveDir returns the directory holding control sockets. An explicit
// path wins, then MANGALENS_SOCKET_DIR, then the user runtime dir.
func ResolveDir(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if dir := os.Getenv("MANGALENS_SOCKET_DIR"); dir != "" {
		return dir, nil
	}
	if runtime.GOOS != "windows" {
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			return filepath.Join(dir, "mangalens"), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mangalens", "sockets"), nil
}

// Path returns the socket path for a session name inside dir.
func Path(dir, name string) string {
	filename := name
	if !strings.HasSuffix(filename, ".sock") {
		filename += ".sock"
	}
	return filepath.Join(dir, filename)
}

// SanitizeName turns an arbitrary book name into a safe session name.
func SanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		return "viewer"
	}
	return name
}

// Status reports one socket found in the session directory.
type Status struct {
	Name string
	File string
	Err  error
}

// Collect lists the sockets in dir and pings each to tell the live ones
// from the dead.
func Collect(dir string) ([]Status, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	statuses := make([]Status, 0, len(entries))
	for _, entry := range entries {
		if entry.Type()&os.ModeDir != 0 {
			continue
		}
		name := entry.Name()
		if entry.Type()&os.ModeSocket == 0 && !strings.HasSuffix(name, ".sock") {
			continue
		}
		trimmed := strings.TrimSuffix(name, ".sock")
		path := filepath.Join(dir, name)
		status := Status{Name: trimmed, File: name}
		if err := Ping(path); err != nil {
			status.Err = normalizeSocketError(err)
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses, nil
}

// Clean removes dead sockets from dir and reports the removed names.
func Clean(dir string) ([]string, error) {
	statuses, err := Collect(dir)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, st := range statuses {
		if st.Err == nil {
			continue
		}
		path := filepath.Join(dir, st.File)
		if err := os.Remove(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("remove %s: %w", st.Name, err)
		}
		removed = append(removed, st.Name)
	}
	return removed, nil
}

// SelectRunning resolves a session name against the live sockets in dir.
// With an empty preference it succeeds only when exactly one session runs.
func SelectRunning(dir, preferred string) (string, error) {
	statuses, err := Collect(dir)
	if err != nil {
		return "", err
	}
	alive := make([]string, 0, len(statuses))
	for _, st := range statuses {
		if st.Err == nil {
			alive = append(alive, st.Name)
		}
	}
	sort.Strings(alive)
	if preferred != "" {
		for _, name := range alive {
			if name == preferred {
				return preferred, nil
			}
		}
		return "", fmt.Errorf("session %s is not running", preferred)
	}
	switch len(alive) {
	case 0:
		return "", errors.New("no viewer sessions running")
	case 1:
		return alive[0], nil
	default:
		return "", fmt.Errorf("multiple viewer sessions running; specify a session name (%s)", strings.Join(alive, ", "))
	}
}

// SelectForStop resolves a session name for shutdown. Unlike SelectRunning
// it accepts a dead session so stale sockets can still be cleared.
func SelectForStop(dir, preferred string) (string, error) {
	if preferred != "" {
		return preferred, nil
	}
	statuses, err := Collect(dir)
	if err != nil {
		return "", err
	}
	if len(statuses) == 0 {
		return "", errors.New("no viewer sessions found")
	}
	if len(statuses) == 1 {
		return statuses[0].Name, nil
	}
	alive := make([]string, 0, len(statuses))
	for _, st := range statuses {
		if st.Err == nil {
			alive = append(alive, st.Name)
		}
	}
	if len(alive) == 1 {
		return alive[0], nil
	}
	return "", fmt.Errorf("multiple viewer sessions found; specify a session name (%s)", formatStatusNames(statuses))
}

func formatStatusNames(statuses []Status) string {
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, st.Name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Ping checks that the socket at path answers the protocol greeting.
func Ping(path string) error {
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		return err
	}
	defer closeWithLog("ping socket", conn)
	if err := conn.SetDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return err
	}
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
	if _, err := fmt.Fprintln(conn, "PING"); err != nil {
		return err
	}
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return err
		}
		return errors.New("no pong received")
	}
	if scanner.Text() != "PONG" {
		return fmt.Errorf("unexpected response: %s", scanner.Text())
	}
	return nil
}

func normalizeSocketError(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return errors.New("missing socket file")
	}
	if errors.Is(err, os.ErrPermission) {
		return errors.New("permission denied")
	}
	return err
}
