package qr

import (
	"bytes"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestPNG_RendersImage(t *testing.T) {
	img, err := PNG("https://tuneconnect.example/f/ABCD1234", 0)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatalf("output is not a PNG (first bytes %v)", img[:4])
	}
}

func TestPNG_EmptyContent(t *testing.T) {
	if _, err := PNG("", 256); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestPNG_ClampsSize(t *testing.T) {
	if _, err := PNG("x", 1 << 20); err != nil {
		t.Fatalf("oversized request should clamp, got %v", err)
	}
}
