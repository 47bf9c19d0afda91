package telegram

import (
	"encoding/json"
	"fmt"

	"github.com/celestix/gotgproto/storage"
	"github.com/gotd/td/session"
)

// storedSession mirrors the envelope gotd's session.Loader reads back.
type storedSession struct {
	Version int
	Data    session.Data
}

// ConvertToGotgprotoSession wraps gotd session data into the row gotgproto's
// SqlSession stores, so a QR login can be resumed by NewPersistentClient.
func ConvertToGotgprotoSession(data *session.Data) (*storage.Session, error) {
	if data == nil {
		return nil, fmt.Errorf("session data is nil")
	}

	raw, err := json.Marshal(storedSession{Version: 1, Data: *data})
	if err != nil {
		return nil, fmt.Errorf("marshal session data: %w", err)
	}

	return &storage.Session{
		Version: storage.LatestVersion,
		Data:    raw,
	}, nil
}
