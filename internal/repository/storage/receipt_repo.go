package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// ReceiptRepository defines the interface for receipt image storage
type ReceiptRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// ObjectPath builds a unique storage path for a receipt variant, scoped by
// user and transaction.
func ObjectPath(userID, transactionID uuid.UUID, receiptID, variant, ext string) string {
	filename := fmt.Sprintf("%s_%s%s", receiptID, variant, ext)
	return path.Join(userID.String(), "receipts", transactionID.String(), filename)
}
