package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/repository/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	MaxReceiptSize   = 5 * 1024 * 1024 // 5MB
	MinReceiptWidth  = 50
	MinReceiptHeight = 50
	ThumbnailWidth   = 200
	DisplayWidth     = 800
	JPEGQuality      = 85

	// PresignExpiry is how long receipt download links stay valid.
	PresignExpiry = 15 * time.Minute
)

var (
	ErrReceiptTooLarge             = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidReceiptFormat        = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrReceiptTooSmall             = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidReceiptData          = errors.New("invalid image data")
	ErrReceiptStorageNotConfigured = errors.New("receipt storage not configured")
)

// allowedReceiptExtensions maps extensions to content types
var allowedReceiptExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ReceiptMetadata contains presigned URLs for the stored variants.
type ReceiptMetadata struct {
	ID           string `json:"id"`
	ThumbnailURL string `json:"thumbnailUrl"`
	DisplayURL   string `json:"displayUrl"`
	OriginalURL  string `json:"originalUrl"`
}

// ReceiptService validates, resizes, and stores receipt images attached to
// transactions.
type ReceiptService struct {
	storage         storage.ReceiptRepository
	transactionRepo domain.TransactionRepository
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(storage storage.ReceiptRepository, transactionRepo domain.TransactionRepository) *ReceiptService {
	return &ReceiptService{
		storage:         storage,
		transactionRepo: transactionRepo,
	}
}

// IsEnabled indicates whether uploads are supported (storage configured).
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// AttachReceipt validates and processes the image, uploads thumbnail,
// display, and original variants, and records the receipt ID on the
// transaction.
func (s *ReceiptService) AttachReceipt(ctx context.Context, userID, transactionID uuid.UUID, data []byte, filename string) (*ReceiptMetadata, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	if _, err := s.transactionRepo.GetByID(userID, transactionID); err != nil {
		return nil, err
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	receiptID := uuid.New().String()

	variants := []struct {
		name     string
		maxWidth int
	}{
		{"thumb", ThumbnailWidth},
		{"display", DisplayWidth},
		{"original", 0}, // 0 means keep original size
	}

	meta := &ReceiptMetadata{ID: receiptID}
	for _, variant := range variants {
		processed := img
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, err
		}

		objectPath := storage.ObjectPath(userID, transactionID, receiptID, variant.name, ".jpg")
		if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			return nil, err
		}

		url, err := s.storage.GeneratePresignedURL(ctx, objectPath, PresignExpiry)
		if err != nil {
			return nil, err
		}
		switch variant.name {
		case "thumb":
			meta.ThumbnailURL = url
		case "display":
			meta.DisplayURL = url
		case "original":
			meta.OriginalURL = url
		}
	}

	if err := s.transactionRepo.SetReceiptID(userID, transactionID, &receiptID); err != nil {
		return nil, err
	}

	return meta, nil
}

// ReceiptURLs returns fresh presigned URLs for a transaction's receipt.
func (s *ReceiptService) ReceiptURLs(ctx context.Context, userID, transactionID uuid.UUID) (*ReceiptMetadata, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	transaction, err := s.transactionRepo.GetByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.ReceiptID == nil {
		return nil, domain.ErrNotFound
	}

	receiptID := *transaction.ReceiptID
	meta := &ReceiptMetadata{ID: receiptID}
	for _, variant := range []string{"thumb", "display", "original"} {
		objectPath := storage.ObjectPath(userID, transactionID, receiptID, variant, ".jpg")
		url, err := s.storage.GeneratePresignedURL(ctx, objectPath, PresignExpiry)
		if err != nil {
			return nil, err
		}
		switch variant {
		case "thumb":
			meta.ThumbnailURL = url
		case "display":
			meta.DisplayURL = url
		case "original":
			meta.OriginalURL = url
		}
	}
	return meta, nil
}

// validateAndDecode validates the image and returns the decoded image
func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedReceiptExtensions[ext]; !ok {
		return nil, ErrInvalidReceiptFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidReceiptData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptHeight {
		return nil, ErrReceiptTooSmall
	}

	return img, nil
}
