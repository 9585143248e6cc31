package main

import (
	"flag"
	"os"
	"strings"

	"github.com/example/mangalens/internal/session"
)

// sendCmd forwards one command line to a running viewer's control socket.
type sendCmd struct {
	dir     string
	operand []string
	*root
	fs *flag.FlagSet
}

func (c *sendCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseSendCmd(args []string, r *root) (*sendCmd, error) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	c := &sendCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.dir, "dir", "", "session socket directory (default: runtime dir)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, &UsageError{of: c}
	}
	c.operand = fs.Args()
	return c, nil
}

// Run resolves the target session. A first operand naming a known socket is
// treated as the session; everything else is the command line.
func (c *sendCmd) Run() error {
	dir, err := session.ResolveDir(c.dir)
	if err != nil {
		return err
	}
	name := ""
	words := c.operand
	if len(words) > 1 {
		if statuses, err := session.Collect(dir); err == nil {
			for _, st := range statuses {
				if st.Name == words[0] {
					name = words[0]
					words = words[1:]
					break
				}
			}
		}
	}
	name, err = session.SelectRunning(dir, name)
	if err != nil {
		return err
	}
	line := strings.Join(words, " ")
	return session.Send(dir, name, []string{line}, os.Stdout, os.Stderr)
}
