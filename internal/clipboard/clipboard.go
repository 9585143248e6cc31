// Package clipboard publishes extracted text and cropped page images to
// the system clipboard. Unix builds use golang.design/x/clipboard under
// cgo and a pure-Go X11 selection owner otherwise.
package clipboard
