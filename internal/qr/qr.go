// Package qr renders payment request QR codes as fixed-size PNG images.
package qr

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// Size is the edge length of every rendered image in pixels.
	Size = 256
	// Margin is the quiet zone width in modules.
	Margin = 2

	dataURLPrefix = "data:image/png;base64,"
)

var ErrEmptyContent = errors.New("qr content must not be empty")

// Encode renders data as a Size x Size PNG with medium error correction and
// a Margin-module quiet zone, black on white.
func Encode(data string) ([]byte, error) {
	if data == "" {
		return nil, ErrEmptyContent
	}
	code, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code.DisableBorder = true
	bitmap := code.Bitmap()

	n := len(bitmap)
	modules := n + 2*Margin
	img := image.NewPaletted(image.Rect(0, 0, Size, Size), color.Palette{color.White, color.Black})
	for y := 0; y < Size; y++ {
		my := y*modules/Size - Margin
		if my < 0 || my >= n {
			continue
		}
		row := bitmap[my]
		for x := 0; x < Size; x++ {
			mx := x*modules/Size - Margin
			if mx >= 0 && mx < n && row[mx] {
				img.SetColorIndex(x, y, 1)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("write png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeFor is Encode with an error message naming what the code was for.
func EncodeFor(data, description string) ([]byte, error) {
	img, err := Encode(data)
	if err != nil {
		return nil, fmt.Errorf("QR Code Generation Failed for %s: %w", description, err)
	}
	return img, nil
}

// DataURL wraps PNG bytes in a data:image/png;base64 URL.
func DataURL(pngData []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(pngData)
}

// DecodeDataURL reverses DataURL. Raw base64 without the prefix is accepted.
func DecodeDataURL(s string) ([]byte, error) {
	if len(s) >= len(dataURLPrefix) && s[:len(dataURLPrefix)] == dataURLPrefix {
		s = s[len(dataURLPrefix):]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode qr data url: %w", err)
	}
	return data, nil
}
