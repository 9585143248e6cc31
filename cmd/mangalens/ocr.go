package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/mangalens/internal/ocr"
)

// ocrCmd inspects and converts recognized-text sidecars without opening a
// window. The blocks and text verbs accept both sidecar JSON and hOCR;
// convert always writes sidecar JSON.
type ocrCmd struct {
	input  string
	output string
	lang   string
	op     string
	*root
	fs *flag.FlagSet
}

func (c *ocrCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseOCRCmd(args []string, r *root) (*ocrCmd, error) {
	fs := flag.NewFlagSet("ocr", flag.ExitOnError)
	c := &ocrCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.input, "input", "", "sidecar JSON or hOCR file to read")
	fs.StringVar(&c.output, "output", "", "output path for convert (default: input with .json)")
	fs.StringVar(&c.lang, "lang", "ja", "language code used to join lines")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.input == "" || fs.NArg() < 1 {
		return nil, &UsageError{of: c}
	}
	c.op = strings.ToLower(fs.Arg(0))
	return c, nil
}

func (c *ocrCmd) Run() error {
	switch c.op {
	case "blocks":
		d, err := readOCRFile(c.input)
		if err != nil {
			return err
		}
		fmt.Printf("%d blocks on a %dx%d grid (* marks vertical text):\n",
			len(d.Blocks), d.Width, d.Height)
		for i, b := range d.Blocks {
			marker := " "
			if b.Vertical {
				marker = "*"
			}
			fmt.Printf("%3d %s (%.0f,%.0f)-(%.0f,%.0f)\n", i+1, marker,
				b.Box.X1, b.Box.Y1, b.Box.X2, b.Box.Y2)
			for _, line := range b.Lines {
				fmt.Printf("      %s\n", line)
			}
		}
		return nil
	case "text":
		d, err := readOCRFile(c.input)
		if err != nil {
			return err
		}
		for _, b := range d.Blocks {
			fmt.Println(b.Text(c.lang))
		}
		return nil
	case "convert":
		d, err := readOCRFile(c.input)
		if err != nil {
			return err
		}
		out := c.output
		if out == "" {
			out = strings.TrimSuffix(c.input, filepath.Ext(c.input)) + ".json"
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %q: %w", out, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				log.Printf("close %s: %v", out, cerr)
			}
		}()
		if err := ocr.Encode(f, d); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s (%d blocks)\n", out, len(d.Blocks))
		return nil
	default:
		return &UsageError{of: c}
	}
}

// readOCRFile decodes by extension: hOCR for .hocr and .html, sidecar JSON
// otherwise.
func readOCRFile(name string) (*ocr.Data, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(name)) {
	case ".hocr", ".html", ".htm":
		return ocr.ParseHOCR(f)
	default:
		return ocr.Decode(f)
	}
}
