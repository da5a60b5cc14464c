package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"boulangerie/logging"
	"boulangerie/repository"
)

const (
	// Image sizes accepted by ProductImage
	SizeThumb  = "thumb"
	SizeMedium = "medium"

	// Quality settings
	qualityThumb  = 60
	qualityMedium = 75
	// Size settings (max dimension)
	maxSizeThumb  = 300
	maxSizeMedium = 800

	maxImageBytes = 20 << 20
)

// ErrNoImage is returned when a product has no image URL
var ErrNoImage = errors.New("product has no image")

// ImageService serves optimized product images from a file cache
type ImageService struct {
	products repository.ProductRepositoryInterface
	cacheDir string
	client   *http.Client
}

// NewImageService creates a new ImageService
func NewImageService(products repository.ProductRepositoryInterface, cacheDir string) *ImageService {
	return &ImageService{
		products: products,
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// EnsureCacheDir ensures the cache directory exists, creates it if it doesn't
func (s *ImageService) EnsureCacheDir() error {
	if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// cachePath returns the cache file for a product version and size
func (s *ImageService) cachePath(productID string, version time.Time, size string) string {
	filename := fmt.Sprintf("product_%s_%d_%s.jpg", productID, version.Unix(), size)
	return filepath.Join(s.cacheDir, filename)
}

func readFromCache(cachePath string) ([]byte, bool) {
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false
	}
	return data, true
}

func saveToCache(cachePath string, imageData []byte) error {
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(cachePath, imageData, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	logging.L().Debugf("✓ Image cached: %s", cachePath)
	return nil
}

func (s *ImageService) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image host returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// ProductImage returns the product image as an optimized JPEG.
// size is "thumb" or "medium"; anything else is served as medium.
func (s *ImageService) ProductImage(ctx context.Context, productID, size string) ([]byte, error) {
	if size != SizeThumb {
		size = SizeMedium
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Image == "" {
		return nil, ErrNoImage
	}

	cachePath := s.cachePath(product.ID, product.UpdatedAt, size)
	if data, ok := readFromCache(cachePath); ok {
		return data, nil
	}

	raw, err := s.fetch(ctx, product.Image)
	if err != nil {
		return nil, err
	}
	optimized, err := OptimizeImage(raw, size)
	if err != nil {
		return nil, err
	}

	if err := saveToCache(cachePath, optimized); err != nil {
		logging.L().Warnf("⚠️  Failed to cache image for product %s: %v", product.ID, err)
	}
	return optimized, nil
}

// OptimizeImage converts an image to JPEG, shrinking it to fit the size's
// maximum dimension. Smaller images keep their dimensions.
func OptimizeImage(imageData []byte, size string) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	maxDim, quality := maxSizeMedium, qualityMedium
	if size == SizeThumb {
		maxDim, quality = maxSizeThumb, qualityThumb
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var resized image.Image = img
	if width > maxDim || height > maxDim {
		// Fit keeps the aspect ratio
		resized = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		logging.L().Debugf("🔄 Resized %s image: %dx%d -> %dx%d", format, width, height, resized.Bounds().Dx(), resized.Bounds().Dy())
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
