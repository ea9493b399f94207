package media

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

var imageFormats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
}

// IsSupportedImage reports whether contentType is an accepted cover image type.
func IsSupportedImage(contentType string) bool {
	_, ok := imageFormats[contentType]
	return ok
}

// NormalizeImage downscales a cover image so neither side exceeds maxDimension.
// Images already within bounds are passed through byte for byte.
func NormalizeImage(obj Object, maxDimension int) (Object, error) {
	format, ok := imageFormats[obj.ContentType]
	if !ok {
		return obj, fmt.Errorf("unsupported image type %q", obj.ContentType)
	}

	raw, err := io.ReadAll(obj.Body)
	if err != nil {
		return obj, fmt.Errorf("read image: %w", err)
	}
	passthrough := obj
	passthrough.Body = bytes.NewReader(raw)
	passthrough.Size = int64(len(raw))
	if maxDimension <= 0 {
		return passthrough, nil
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return obj, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return passthrough, nil
	}

	resized := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return obj, fmt.Errorf("encode image: %w", err)
	}

	out := obj
	out.Body = bytes.NewReader(buf.Bytes())
	out.Size = int64(buf.Len())
	return out, nil
}
