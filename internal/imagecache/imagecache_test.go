package imagecache

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// gatedOpener blocks every open until release is closed and counts the
// opens it served.
type gatedOpener struct {
	data    map[string][]byte
	release chan struct{}
	opens   atomic.Int32
}

func (g *gatedOpener) open(name string) (io.ReadCloser, error) {
	g.opens.Add(1)
	<-g.release
	data, ok := g.data[name]
	if !ok {
		return nil, errors.New("no such page")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestGetDecodesInBackground(t *testing.T) {
	g := &gatedOpener{
		data:    map[string][]byte{"p1": pngBytes(t, 5, 7)},
		release: make(chan struct{}),
	}
	loaded := make(chan string, 1)
	c := New(g.open, WithLoadListener(func(key string) { loaded <- key }))

	if _, st := c.Get("p1"); st != StatusLoading {
		t.Fatalf("status before decode = %v, want loading", st)
	}
	close(g.release)

	select {
	case key := <-loaded:
		if key != "p1" {
			t.Fatalf("load listener got %q", key)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("load listener never fired")
	}

	img, st := c.Get("p1")
	if st != StatusReady {
		t.Fatalf("status after decode = %v, want ready", st)
	}
	if b := img.Bounds(); b.Dx() != 5 || b.Dy() != 7 {
		t.Errorf("bounds = %v, want 5x7", b)
	}
}

func TestSingleFlight(t *testing.T) {
	g := &gatedOpener{
		data:    map[string][]byte{"p1": pngBytes(t, 2, 2)},
		release: make(chan struct{}),
	}
	c := New(g.open)

	c.Get("p1")
	c.Get("p1")
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.Wait(context.Background(), "p1"); err != nil {
			t.Errorf("Wait: %v", err)
		}
	}()
	close(g.release)
	<-done

	if n := g.opens.Load(); n != 1 {
		t.Errorf("opens = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestFailedEntryStaysFailed(t *testing.T) {
	g := &gatedOpener{release: make(chan struct{})}
	close(g.release)
	c := New(g.open)

	if _, err := c.Wait(context.Background(), "missing"); err == nil {
		t.Fatal("Wait on a missing page succeeded")
	}
	for i := 0; i < 3; i++ {
		if _, st := c.Get("missing"); st != StatusFailed {
			t.Fatalf("status = %v, want failed", st)
		}
	}
	if n := g.opens.Load(); n != 1 {
		t.Errorf("opens = %d, want 1 (no retry)", n)
	}
}

func TestDecodeErrorFails(t *testing.T) {
	g := &gatedOpener{
		data:    map[string][]byte{"junk": []byte("not an image")},
		release: make(chan struct{}),
	}
	close(g.release)
	c := New(g.open)
	if _, err := c.Wait(context.Background(), "junk"); err == nil {
		t.Fatal("decoding junk succeeded")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	g := &gatedOpener{
		data:    map[string][]byte{"p1": pngBytes(t, 2, 2)},
		release: make(chan struct{}),
	}
	t.Cleanup(func() { close(g.release) })
	c := New(g.open)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Wait(ctx, "p1"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
