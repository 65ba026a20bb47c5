package services

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/mandalhq/mandal-api/internal/storage"
)

// SlipService normalizes uploaded payment screenshots before they are
// stored. Slips come straight off phone cameras; resizing them keeps the
// OCR payload small and the storage bill flat.
type SlipService struct {
	storage *storage.LocalStorage
}

func NewSlipService(store *storage.LocalStorage) *SlipService {
	return &SlipService{storage: store}
}

const slipMaxWidth = 1280
const thumbWidth = 320

// ProcessAndStore validates, normalizes and persists a slip image plus a
// review thumbnail. Returns the relative paths of both.
func (s *SlipService) ProcessAndStore(file multipart.File, header *multipart.FileHeader, subDir string) (slipPath, thumbPath string, err error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", "", fmt.Errorf("unsupported image format (JPG/PNG only)")
	}
	if header.Size > storage.MaxFileSize() {
		return "", "", fmt.Errorf("file exceeds %d byte limit", storage.MaxFileSize())
	}

	img, _, err := image.Decode(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Downscale only; small slips pass through untouched
	if img.Bounds().Dx() > slipMaxWidth {
		img = imaging.Resize(img, slipMaxWidth, 0, imaging.Lanczos)
	}

	slipBytes, err := encodeImage(img, ext)
	if err != nil {
		return "", "", err
	}
	slipPath, err = s.storage.UploadFromBytes(slipBytes, header.Filename, subDir)
	if err != nil {
		return "", "", fmt.Errorf("failed to store slip: %w", err)
	}

	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	thumbBytes, err := encodeImage(thumb, ext)
	if err != nil {
		return slipPath, "", err
	}
	thumbPath, err = s.storage.UploadFromBytes(thumbBytes, "thumb_"+header.Filename, subDir+"/thumbs")
	if err != nil {
		// The thumbnail is a review convenience; the slip itself landed
		return slipPath, "", nil
	}

	return slipPath, thumbPath, nil
}

func encodeImage(img image.Image, ext string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if ext == ".png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
