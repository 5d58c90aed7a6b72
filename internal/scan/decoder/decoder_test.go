package decoder

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/stretchr/testify/assert"
)

func encodeBarcode(t *testing.T, writer gozxing.Writer, content string, format gozxing.BarcodeFormat) image.Image {
	t.Helper()
	matrix, err := writer.Encode(content, format, 400, 120, nil)
	if err != nil {
		t.Fatalf("failed to encode test barcode %q: %v", content, err)
	}
	return matrix
}

func TestDecode_SingleCode128(t *testing.T) {
	d := New()
	frame := encodeBarcode(t, oned.NewCode128Writer(), "8901030875278", gozxing.BarcodeFormat_CODE_128)

	detections, err := d.Decode(frame)
	assert.NoError(t, err)
	assert.Len(t, detections, 1)
	assert.Equal(t, "8901030875278", detections[0].Symbol)
	assert.False(t, detections[0].Bounds.Empty())
}

func TestDecode_SingleEAN13(t *testing.T) {
	d := New()
	// valid EAN-13 with correct check digit
	frame := encodeBarcode(t, oned.NewEAN13Writer(), "4006381333931", gozxing.BarcodeFormat_EAN_13)

	detections, err := d.Decode(frame)
	assert.NoError(t, err)
	assert.Len(t, detections, 1)
	assert.Equal(t, "4006381333931", detections[0].Symbol)
}

func TestDecode_EmptyFrameIsNotAnError(t *testing.T) {
	d := New()
	blank := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			blank.Set(x, y, color.White)
		}
	}

	detections, err := d.Decode(blank)
	assert.NoError(t, err, "a well-formed frame with no barcode is a normal outcome")
	assert.Empty(t, detections)
}

func TestDecodeBytes_RoundTrip(t *testing.T) {
	d := New()
	frame := encodeBarcode(t, oned.NewCode128Writer(), "123456789", gozxing.BarcodeFormat_CODE_128)

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		t.Fatalf("failed to png-encode test frame: %v", err)
	}

	detections, err := d.DecodeBytes(buf.Bytes())
	assert.NoError(t, err)
	assert.Len(t, detections, 1)
	assert.Equal(t, "123456789", detections[0].Symbol)
}

func TestDecodeBytes_MalformedBuffer(t *testing.T) {
	d := New()
	_, err := d.DecodeBytes([]byte("this is not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}
