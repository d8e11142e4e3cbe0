package services

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QR code sizes in pixels
const (
	DefaultQRSize = 300
	MinQRSize     = 64
	MaxQRSize     = 1024
)

// QRRenderer draws QR codes that point at the public certificate view
type QRRenderer struct {
	baseURL string
}

// NewQRRenderer creates a renderer for a frontend served at baseURL
func NewQRRenderer(baseURL string) *QRRenderer {
	return &QRRenderer{baseURL: strings.TrimRight(baseURL, "/")}
}

// PublicURL is the certificate page for slug
func (r *QRRenderer) PublicURL(slug string) string {
	return r.baseURL + "/pasien/" + slug
}

// PNG encodes PublicURL(slug) as a size x size PNG. size is clamped to
// [MinQRSize, MaxQRSize]; zero picks DefaultQRSize.
func (r *QRRenderer) PNG(slug string, size int) ([]byte, error) {
	switch {
	case size == 0:
		size = DefaultQRSize
	case size < MinQRSize:
		size = MinQRSize
	case size > MaxQRSize:
		size = MaxQRSize
	}

	png, err := qrcode.Encode(r.PublicURL(slug), qrcode.Low, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
