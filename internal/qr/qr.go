// Package qr renders QR code images for form URLs.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// DefaultSize is the rendered PNG edge length in pixels.
	DefaultSize = 256

	maxSize = 2048
)

// PNG renders content as a QR code PNG with medium error correction.
// size <= 0 selects DefaultSize; oversized requests are clamped.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr: empty content")
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
