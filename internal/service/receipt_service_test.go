package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/repository/storage"
	"github.com/centsible/centsible-backend/internal/testutil"
)

// createReceiptImage encodes a solid-color test image of the given size.
func createReceiptImage(width, height int, format string) ([]byte, string) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	var buf bytes.Buffer
	var filename string

	switch format {
	case "png":
		png.Encode(&buf, img)
		filename = "receipt.png"
	default:
		jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
		filename = "receipt.jpg"
	}

	return buf.Bytes(), filename
}

func newReceiptFixture(t *testing.T) (*ReceiptService, *testutil.MockReceiptRepository, *testutil.MockTransactionRepository, uuid.UUID, uuid.UUID) {
	t.Helper()

	receiptRepo := testutil.NewMockReceiptRepository()
	transactionRepo := testutil.NewMockTransactionRepository()

	userID := uuid.New()
	transaction := &domain.Transaction{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            "Groceries",
		Amount:          decimal.NewFromFloat(54.20),
		Type:            domain.TransactionTypeExpense,
		Status:          domain.TransactionStatusCompleted,
		TransactionDate: time.Now(),
	}
	transactionRepo.AddTransaction(transaction)

	return NewReceiptService(receiptRepo, transactionRepo), receiptRepo, transactionRepo, userID, transaction.ID
}

func TestAttachReceipt_StoresAllVariants(t *testing.T) {
	svc, receiptRepo, transactionRepo, userID, transactionID := newReceiptFixture(t)

	data, filename := createReceiptImage(1000, 1400, "jpeg")
	meta, err := svc.AttachReceipt(context.Background(), userID, transactionID, data, filename)

	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.NotEmpty(t, meta.ID)

	for _, variant := range []string{"thumb", "display", "original"} {
		objectPath := storage.ObjectPath(userID, transactionID, meta.ID, variant, ".jpg")
		stored, ok := receiptRepo.Objects[objectPath]
		require.True(t, ok, "variant %s not uploaded", variant)

		img, _, decodeErr := image.Decode(bytes.NewReader(stored))
		require.NoError(t, decodeErr)

		switch variant {
		case "thumb":
			assert.Equal(t, ThumbnailWidth, img.Bounds().Dx())
		case "display":
			assert.Equal(t, DisplayWidth, img.Bounds().Dx())
		case "original":
			assert.Equal(t, 1000, img.Bounds().Dx())
		}
	}

	assert.NotEmpty(t, meta.ThumbnailURL)
	assert.NotEmpty(t, meta.DisplayURL)
	assert.NotEmpty(t, meta.OriginalURL)

	transaction, err := transactionRepo.GetByID(userID, transactionID)
	require.NoError(t, err)
	require.NotNil(t, transaction.ReceiptID)
	assert.Equal(t, meta.ID, *transaction.ReceiptID)
}

func TestAttachReceipt_SmallImageIsNotUpscaled(t *testing.T) {
	svc, receiptRepo, _, userID, transactionID := newReceiptFixture(t)

	data, filename := createReceiptImage(150, 150, "png")
	meta, err := svc.AttachReceipt(context.Background(), userID, transactionID, data, filename)

	require.NoError(t, err)

	// 150px is below the display width, so only the thumbnail shrinks.
	displayPath := storage.ObjectPath(userID, transactionID, meta.ID, "display", ".jpg")
	img, _, decodeErr := image.Decode(bytes.NewReader(receiptRepo.Objects[displayPath]))
	require.NoError(t, decodeErr)
	assert.Equal(t, 150, img.Bounds().Dx())
}

func TestAttachReceipt_StorageNotConfigured(t *testing.T) {
	transactionRepo := testutil.NewMockTransactionRepository()
	svc := NewReceiptService(nil, transactionRepo)

	data, filename := createReceiptImage(100, 100, "jpeg")
	_, err := svc.AttachReceipt(context.Background(), uuid.New(), uuid.New(), data, filename)

	assert.ErrorIs(t, err, ErrReceiptStorageNotConfigured)
}

func TestAttachReceipt_UnknownTransaction(t *testing.T) {
	svc, _, _, userID, _ := newReceiptFixture(t)

	data, filename := createReceiptImage(100, 100, "jpeg")
	_, err := svc.AttachReceipt(context.Background(), userID, uuid.New(), data, filename)

	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestAttachReceipt_ForeignTransaction(t *testing.T) {
	svc, _, _, _, transactionID := newReceiptFixture(t)

	data, filename := createReceiptImage(100, 100, "jpeg")
	_, err := svc.AttachReceipt(context.Background(), uuid.New(), transactionID, data, filename)

	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestAttachReceipt_RejectsOversizedFile(t *testing.T) {
	svc, _, _, userID, transactionID := newReceiptFixture(t)

	data := make([]byte, MaxReceiptSize+1)
	_, err := svc.AttachReceipt(context.Background(), userID, transactionID, data, "receipt.jpg")

	assert.ErrorIs(t, err, ErrReceiptTooLarge)
}

func TestAttachReceipt_RejectsUnsupportedExtension(t *testing.T) {
	svc, _, _, userID, transactionID := newReceiptFixture(t)

	data, _ := createReceiptImage(100, 100, "jpeg")
	_, err := svc.AttachReceipt(context.Background(), userID, transactionID, data, "receipt.gif")

	assert.ErrorIs(t, err, ErrInvalidReceiptFormat)
}

func TestAttachReceipt_RejectsTinyImage(t *testing.T) {
	svc, _, _, userID, transactionID := newReceiptFixture(t)

	data, filename := createReceiptImage(20, 20, "jpeg")
	_, err := svc.AttachReceipt(context.Background(), userID, transactionID, data, filename)

	assert.ErrorIs(t, err, ErrReceiptTooSmall)
}

func TestAttachReceipt_RejectsGarbageData(t *testing.T) {
	svc, _, _, userID, transactionID := newReceiptFixture(t)

	_, err := svc.AttachReceipt(context.Background(), userID, transactionID, []byte("not an image"), "receipt.jpg")

	assert.ErrorIs(t, err, ErrInvalidReceiptData)
}

func TestReceiptURLs_ReturnsFreshLinks(t *testing.T) {
	svc, _, _, userID, transactionID := newReceiptFixture(t)

	data, filename := createReceiptImage(400, 400, "jpeg")
	attached, err := svc.AttachReceipt(context.Background(), userID, transactionID, data, filename)
	require.NoError(t, err)

	meta, err := svc.ReceiptURLs(context.Background(), userID, transactionID)
	require.NoError(t, err)
	assert.Equal(t, attached.ID, meta.ID)
	assert.Contains(t, meta.ThumbnailURL, meta.ID)
	assert.Contains(t, meta.DisplayURL, "display")
	assert.Contains(t, meta.OriginalURL, "original")
}

func TestReceiptURLs_NoReceiptAttached(t *testing.T) {
	svc, _, _, userID, transactionID := newReceiptFixture(t)

	_, err := svc.ReceiptURLs(context.Background(), userID, transactionID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIsEnabled(t *testing.T) {
	transactionRepo := testutil.NewMockTransactionRepository()

	enabled := NewReceiptService(testutil.NewMockReceiptRepository(), transactionRepo)
	disabled := NewReceiptService(nil, transactionRepo)

	assert.True(t, enabled.IsEnabled())
	assert.False(t, disabled.IsEnabled())
}
