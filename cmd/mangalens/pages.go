package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/example/mangalens/internal/book"
)

// pagesCmd lists a book's pages without opening a window.
type pagesCmd struct {
	book string
	*root
	fs *flag.FlagSet
}

func (c *pagesCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parsePagesCmd(args []string, r *root) (*pagesCmd, error) {
	fs := flag.NewFlagSet("pages", flag.ExitOnError)
	c := &pagesCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: c}
	}
	c.book = fs.Arg(0)
	return c, nil
}

func (c *pagesCmd) Run() error {
	b, err := book.Open(c.book)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			log.Printf("close book: %v", cerr)
		}
	}()

	fmt.Fprintf(os.Stdout, "%s: %d pages (o marks OCR, t marks a translation):\n", b.Name(), b.Len())
	for i, p := range b.Pages() {
		ocrMark := " "
		if p.Sidecar != "" {
			ocrMark = "o"
		}
		transMark := " "
		if p.Translated != "" {
			transMark = "t"
		}
		size := "?"
		if w, h, err := b.Dimensions(i); err == nil {
			size = fmt.Sprintf("%dx%d", w, h)
		}
		fmt.Fprintf(os.Stdout, "%4d %s%s %s %s\n", i+1, ocrMark, transMark, p.Name, size)
	}
	return nil
}
