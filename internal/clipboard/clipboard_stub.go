//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import (
	"fmt"
	"image"
)

func CopyImage(image.Image) error {
	return fmt.Errorf("clipboard image operations are not supported on this platform")
}

func CopyText(string) error {
	return fmt.Errorf("clipboard text operations are not supported on this platform")
}
