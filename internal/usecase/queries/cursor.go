package queries

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hotel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
	CursorVersionV1  = "v1"
)

var ErrInvalidCursor = errs.New("invalid cursor")

// Cursor is the opaque keyset position handed to clients.
type Cursor struct {
	After string `json:"after,omitempty"`
}

// Position is a decoded keyset position: rows strictly after it in (booked_at DESC, id DESC) order.
type Position struct {
	BookedAt time.Time
	ID       uuid.UUID
}

// Uses microsecond precision to align with PostgreSQL timestamp precision
func EncodeAfterCursor(t time.Time, id uuid.UUID) string {
	cursorData := fmt.Sprintf("%s:%d-%s", CursorVersionV1, t.UnixMicro(), id.String())
	return base64.URLEncoding.EncodeToString([]byte(cursorData))
}

func DecodeAfterCursor(cursor string) (Position, error) {
	if cursor == "" {
		return Position{}, errs.Wrap(ErrInvalidCursor, "cursor cannot be empty")
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Position{}, errs.Wrap(ErrInvalidCursor, "cursor is not base64url")
	}

	payload, ok := strings.CutPrefix(string(decoded), CursorVersionV1+":")
	if !ok {
		return Position{}, errs.Wrap(ErrInvalidCursor, "unknown cursor version")
	}

	parts := strings.SplitN(payload, "-", 2)
	if len(parts) != 2 {
		return Position{}, errs.Wrap(ErrInvalidCursor, "expected '<micros>-<uuid>'")
	}

	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Position{}, errs.Wrapf(ErrInvalidCursor, "invalid timestamp %q", parts[0])
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Position{}, errs.Wrapf(ErrInvalidCursor, "invalid id %q", parts[1])
	}

	return Position{BookedAt: time.UnixMicro(micros).UTC(), ID: id}, nil
}

func ValidateLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
