package processor

import (
	"bytes"
	"image"
	"image/jpeg"
)

const formatJPEG = "jpeg"

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
