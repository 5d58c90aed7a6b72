// Package decoder turns raster frames into barcode detections. It is a
// pure function of the frame; drawing bounding boxes or retrying is the
// caller's business.
package decoder

import (
	"bytes"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var ErrInvalidImage = errors.New("frame cannot be decoded as an image")

// Detection is one decoded symbol with its bounding geometry. Order of
// detections is detector-dependent and carries no meaning beyond "first is
// acceptable when exactly one is expected".
type Detection struct {
	Symbol string          `json:"symbol"`
	Bounds image.Rectangle `json:"bounds"`
}

type Decoder struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// New builds a decoder covering the linear retail symbologies (EAN/UPC and
// Code 128) plus QR.
func New() *Decoder {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return &Decoder{
		readers: []gozxing.Reader{
			oned.NewMultiFormatOneDReader(hints),
			qrcode.NewQRCodeReader(),
		},
		hints: hints,
	}
}

// Decode runs every reader over the frame and collects distinct symbols.
// A frame with no barcode in it returns an empty slice and a nil error;
// that is the normal "keep scanning" outcome, not a failure.
func (d *Decoder) Decode(img image.Image) ([]Detection, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, ErrInvalidImage
	}

	detections := []Detection{}
	seen := map[string]bool{}
	for _, reader := range d.readers {
		result, err := reader.Decode(bmp, d.hints)
		if err != nil {
			// not-found from one symbology family just means this reader
			// saw nothing; try the next one
			continue
		}
		symbol := result.GetText()
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		detections = append(detections, Detection{
			Symbol: symbol,
			Bounds: boundsOf(result.GetResultPoints()),
		})
	}
	return detections, nil
}

// DecodeBytes decodes a raw JPEG/PNG buffer first, then scans it. A buffer
// that is not a well-formed image fails with ErrInvalidImage.
func (d *Decoder) DecodeBytes(buf []byte) ([]Detection, error) {
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, ErrInvalidImage
	}
	return d.Decode(img)
}

func boundsOf(points []gozxing.ResultPoint) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range points {
		minX = math.Min(minX, pt.GetX())
		minY = math.Min(minY, pt.GetY())
		maxX = math.Max(maxX, pt.GetX())
		maxY = math.Max(maxY, pt.GetY())
	}
	x0, y0 := int(minX), int(minY)
	x1, y1 := int(math.Ceil(maxX)), int(math.Ceil(maxY))
	// linear codes report points on a single scanline; keep the rect drawable
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}
