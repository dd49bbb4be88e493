package receipts

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

var errMalformedCursor = errors.New("malformed receipt cursor")

// ListParams selects one page of the archive. Cursor is the NextCursor of
// the previous page, or empty for the newest receipts.
type ListParams struct {
	Limit  int
	Cursor string
}

func (p ListParams) pageSize() int {
	switch {
	case p.Limit <= 0:
		return DefaultPageSize
	case p.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return p.Limit
	}
}

// PageCursor marks the last receipt of a page in (issued_at, id) order.
type PageCursor struct {
	IssuedAt time.Time
	ID       uuid.UUID
}

// Token is the opaque form handed to clients: "<unix nanos>.<receipt id>",
// base64url encoded.
func (c PageCursor) Token() string {
	raw := strconv.FormatInt(c.IssuedAt.UnixNano(), 10) + "." + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// parseCursor turns a token back into a cursor. An empty token means the
// first page.
func parseCursor(token string) (*PageCursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCursor, err)
	}
	nanos, id, ok := strings.Cut(string(raw), ".")
	if !ok {
		return nil, errMalformedCursor
	}
	at, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: issued_at: %v", errMalformedCursor, err)
	}
	receiptID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %v", errMalformedCursor, err)
	}
	return &PageCursor{IssuedAt: time.Unix(0, at).UTC(), ID: receiptID}, nil
}
