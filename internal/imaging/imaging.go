// Package imaging provides image probing and conversion for embedded media.
//
// DOCX containers may carry BMP or TIFF media that LaTeX cannot include
// directly; those are re-encoded as PNG on the way out. The same decoders
// supply intrinsic pixel sizes for DOCX extent computation on the embed side.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	_ "image/gif"
	_ "image/jpeg"
)

// emuPerPixel converts pixels at 96 dpi to English Metric Units, the unit
// OOXML uses for drawing extents (914400 EMU per inch).
const emuPerPixel = 914400 / 96

// latexIncludable lists extensions \includegraphics accepts without help.
var latexIncludable = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
	".eps":  true,
}

// Includable reports whether LaTeX can reference the file directly.
func Includable(name string) bool {
	return latexIncludable[strings.ToLower(filepath.Ext(name))]
}

// Size returns the intrinsic pixel dimensions of an encoded image.
func Size(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decoding image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// ExtentEMU returns the OOXML drawing extent for an encoded image, assuming
// 96 dpi. Undecodable images fall back to a 300x200 point placeholder so an
// embed never fails outright on an exotic format.
func ExtentEMU(data []byte) (cx, cy int64) {
	w, h, err := Size(data)
	if err != nil || w <= 0 || h <= 0 {
		return 300 * 12700, 200 * 12700
	}
	return int64(w) * emuPerPixel, int64(h) * emuPerPixel
}

// ToPNG re-encodes image data as PNG.
func ToPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// Stage copies the image at src into destDir under baseName, converting to
// PNG when the source format is not directly includable by LaTeX. It returns
// the resulting file name within destDir.
func Stage(src, destDir, baseName string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("reading image %s: %w", src, err)
	}

	ext := strings.ToLower(filepath.Ext(src))
	if !Includable(src) {
		converted, err := ToPNG(data)
		if err != nil {
			return "", fmt.Errorf("converting %s: %w", src, err)
		}
		data = converted
		ext = ".png"
	}

	name := baseName + ext
	if err := os.WriteFile(filepath.Join(destDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("staging image %s: %w", name, err)
	}
	return name, nil
}
