package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/example/mangalens/internal/session"
)

// stopCmd asks a running viewer to quit through its control socket.
type stopCmd struct {
	dir     string
	session string
	*root
	fs *flag.FlagSet
}

func (c *stopCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseStopCmd(args []string, r *root) (*stopCmd, error) {
	fs := flag.NewFlagSet("stop", flag.ExitOnError)
	c := &stopCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.dir, "dir", "", "session socket directory (default: runtime dir)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		c.session = fs.Arg(0)
	default:
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *stopCmd) Run() error {
	dir, err := session.ResolveDir(c.dir)
	if err != nil {
		return err
	}
	name, err := session.SelectForStop(dir, c.session)
	if err != nil {
		return err
	}
	if err := session.Stop(dir, name); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "stopped %s\n", name)
	return nil
}
