package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/example/mangalens/internal/session"
)

// sessionsCmd lists or cleans the control sockets of running viewers.
type sessionsCmd struct {
	dir string
	op  string
	*root
	fs *flag.FlagSet
}

func (c *sessionsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseSessionsCmd(args []string, r *root) (*sessionsCmd, error) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	c := &sessionsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.dir, "dir", "", "session socket directory (default: runtime dir)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: c}
	}
	c.op = strings.ToLower(fs.Arg(0))
	if c.op != "list" && c.op != "clean" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *sessionsCmd) Run() error {
	dir, err := session.ResolveDir(c.dir)
	if err != nil {
		return err
	}
	switch c.op {
	case "list":
		statuses, err := session.Collect(dir)
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Fprintln(os.Stdout, "no viewer sessions")
			return nil
		}
		fmt.Fprintf(os.Stdout, "viewer sessions in %s (* marks a live session):\n", dir)
		for _, st := range statuses {
			marker := "*"
			note := ""
			if st.Err != nil {
				marker = " "
				note = fmt.Sprintf(" (dead: %v)", st.Err)
			}
			fmt.Fprintf(os.Stdout, "%s %s%s\n", marker, st.Name, note)
		}
		return nil
	case "clean":
		removed, err := session.Clean(dir)
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			fmt.Fprintln(os.Stdout, "nothing to clean")
			return nil
		}
		for _, name := range removed {
			fmt.Fprintf(os.Stdout, "removed %s\n", name)
		}
		return nil
	}
	return &UsageError{of: c}
}
