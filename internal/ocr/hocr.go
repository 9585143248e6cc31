package ocr

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/example/mangalens/internal/geometry"
)

// ErrNoPage reports hOCR input without an ocr_page element.
var ErrNoPage = errors.New("ocr: no ocr_page element")

// ParseHOCR converts the first ocr_page of an hOCR document into sidecar
// Data. Each ocr_par becomes one block whose lines are its ocr_line
// descendants; an ocr_line outside any paragraph becomes a single-line
// block. Page dimensions come from the page's bbox.
func ParseHOCR(r io.Reader) (*Data, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("ocr: parse hocr: %w", err)
	}
	page := findClass(doc, "ocr_page")
	if page == nil {
		return nil, ErrNoPage
	}
	d := &Data{}
	if box, ok := titleBBox(attrVal(page, "title")); ok {
		d.Width = int(box.X2)
		d.Height = int(box.Y2)
	}
	for c := page.FirstChild; c != nil; c = c.NextSibling {
		collectBlocks(c, d)
	}
	return d, nil
}

func collectBlocks(n *html.Node, d *Data) {
	if n.Type == html.ElementNode {
		class := attrVal(n, "class")
		switch {
		case strings.Contains(class, "ocr_par"):
			if b, ok := paragraphBlock(n); ok {
				d.Blocks = append(d.Blocks, b)
			}
			return
		case strings.Contains(class, "ocr_line"):
			if b, ok := lineBlock(n); ok {
				d.Blocks = append(d.Blocks, b)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectBlocks(c, d)
	}
}

func paragraphBlock(n *html.Node) (Block, bool) {
	b := Block{}
	box, haveBox := titleBBox(attrVal(n, "title"))
	var lineBoxes []geometry.Rect
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && strings.Contains(attrVal(node, "class"), "ocr_line") {
			if text := lineText(node); text != "" {
				b.Lines = append(b.Lines, text)
				if lb, ok := titleBBox(attrVal(node, "title")); ok {
					lineBoxes = append(lineBoxes, lb)
				}
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	if len(b.Lines) == 0 {
		return Block{}, false
	}
	if !haveBox {
		// Paragraph without a bbox: take the union of its line boxes.
		if len(lineBoxes) == 0 {
			return Block{}, false
		}
		box = lineBoxes[0]
		for _, lb := range lineBoxes[1:] {
			if lb.X1 < box.X1 {
				box.X1 = lb.X1
			}
			if lb.Y1 < box.Y1 {
				box.Y1 = lb.Y1
			}
			if lb.X2 > box.X2 {
				box.X2 = lb.X2
			}
			if lb.Y2 > box.Y2 {
				box.Y2 = lb.Y2
			}
		}
	}
	b.Box = box
	return b, true
}

func lineBlock(n *html.Node) (Block, bool) {
	box, ok := titleBBox(attrVal(n, "title"))
	if !ok {
		return Block{}, false
	}
	text := lineText(n)
	if text == "" {
		return Block{}, false
	}
	return Block{Box: box, Lines: []string{text}}, true
}

// lineText joins the text of a line's ocrx_word children with spaces, or
// falls back to the line's own text content.
func lineText(n *html.Node) string {
	var words []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && strings.Contains(attrVal(node, "class"), "ocrx_word") {
			if t := textContent(node); t != "" {
				words = append(words, t)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	if len(words) > 0 {
		return strings.Join(words, " ")
	}
	return textContent(n)
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := textContent(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "")
}

func findClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && strings.Contains(attrVal(n, "class"), class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// titleBBox extracts "bbox x1 y1 x2 y2" from an hOCR title attribute, which
// holds semicolon-separated properties.
func titleBBox(title string) (geometry.Rect, bool) {
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) >= 5 && fields[0] == "bbox" {
			var vals [4]float64
			for i, f := range fields[1:5] {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return geometry.Rect{}, false
				}
				vals[i] = v
			}
			return geometry.R(vals[0], vals[1], vals[2], vals[3]).Canon(), true
		}
	}
	return geometry.Rect{}, false
}
