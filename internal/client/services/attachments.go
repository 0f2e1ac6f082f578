package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
	"github.com/dmitrijs2005/sealtalk/internal/models"
	"github.com/dmitrijs2005/sealtalk/internal/netx"
	"github.com/dmitrijs2005/sealtalk/internal/server/attachments"
)

// AttachmentStore moves attachment ciphertext to and from object storage.
// Each attachment gets its own random key, which only travels inside the
// encrypted message body.
type AttachmentStore struct {
	presigner attachments.Presigner
	upload    func(ctx context.Context, url string, data []byte) error
	download  func(ctx context.Context, url string) ([]byte, error)
}

func NewAttachmentStore(presigner attachments.Presigner) *AttachmentStore {
	return &AttachmentStore{
		presigner: presigner,
		upload:    netx.UploadToPresignedURL,
		download:  netx.DownloadFromPresignedURL,
	}
}

// SetTransport replaces the HTTP transfer functions, e.g. with an in-process
// object store.
func (s *AttachmentStore) SetTransport(upload func(ctx context.Context, url string, data []byte) error, download func(ctx context.Context, url string) ([]byte, error)) {
	s.upload = upload
	s.download = download
}

// Put seals data and uploads it under the conversation's prefix.
func (s *AttachmentStore) Put(ctx context.Context, conversationID, name string, data []byte) (models.Attachment, error) {
	sealed, err := cryptox.SealAttachment(data)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("seal attachment: %w", err)
	}

	key, url, err := s.presigner.PresignUpload(ctx, conversationID)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("presign upload: %w", err)
	}

	if err := s.upload(ctx, url, sealed.Ciphertext); err != nil {
		return models.Attachment{}, fmt.Errorf("upload attachment: %w", err)
	}

	return models.Attachment{
		Name:       filepath.Base(name),
		StorageKey: key,
		Size:       int64(len(data)),
		Key:        sealed.Key,
		Nonce:      sealed.Nonce,
	}, nil
}

// Get downloads and opens a.
func (s *AttachmentStore) Get(ctx context.Context, a models.Attachment) ([]byte, error) {
	url, err := s.presigner.PresignDownload(ctx, a.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}

	ct, err := s.download(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}

	return cryptox.OpenAttachment(ct, a.Key, a.Nonce)
}
