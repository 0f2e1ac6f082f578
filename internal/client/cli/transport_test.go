package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/sealtalk/internal/client/services"
)

// setAttachmentTransport routes a store's object transfers to an in-memory map.
func setAttachmentTransport(s *services.AttachmentStore, objects map[string][]byte) {
	s.SetTransport(
		func(_ context.Context, url string, data []byte) error {
			objects[strings.TrimPrefix(url, "put://")] = append([]byte(nil), data...)
			return nil
		},
		func(_ context.Context, url string) ([]byte, error) {
			data, ok := objects[strings.TrimPrefix(url, "get://")]
			if !ok {
				return nil, errors.New("download failed: 404 Not Found")
			}
			return data, nil
		},
	)
}
