package receipts

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/invoicedesk/internal/cart"
	"github.com/angelmondragon/invoicedesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupReceiptsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Receipt{}, &models.ReceiptLine{}))
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
}

func widgetLines() []cart.Line {
	return []cart.Line{
		{ItemID: 1, DisplayName: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 3},
		{ItemID: 2, DisplayName: "Gadget", UnitPrice: decimal.RequireFromString("2.25"), Quantity: 2},
	}
}

func testHeader(issuedAt time.Time) Header {
	return Header{
		SubmissionID: uuid.New(),
		ClientID:     7,
		ClientName:   "Acme",
		Terminal:     "TERMINAL #1",
		IssuedBy:     3,
		IssuedAt:     issuedAt,
	}
}

func TestFromCartSnapshotsLines(t *testing.T) {
	lines := widgetLines()
	r := FromCart(testHeader(time.Now()), lines)
	lines[0].Quantity = 99

	require.Len(t, r.Lines, 2)
	assert.Equal(t, 3, r.Lines[0].Quantity)
	assert.True(t, r.Lines[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, r.Total.Equal(decimal.RequireFromString("34.50")))
	assert.NotEqual(t, uuid.Nil, r.ID)
}

func TestRenderLayout(t *testing.T) {
	issued := time.Date(2022, 10, 9, 10, 30, 0, 0, time.UTC)
	out := Render(FromCart(testHeader(issued), widgetLines()))
	rows := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, strings.Repeat("*", 30), rows[0])
	assert.Equal(t, "INVOICE", strings.TrimSpace(rows[1]))
	assert.Equal(t, strings.Repeat("*", 30), rows[2])
	assert.Equal(t, "TERMINAL #1", strings.TrimSpace(rows[3]))
	assert.Equal(t, []string{"09-10-2022", "10:30", "am"}, strings.Fields(rows[4]))
	assert.Equal(t, "Client: Acme", rows[5])
	assert.Contains(t, out, "3 x Widget")
	assert.Contains(t, out, "30.00\n")
	assert.Contains(t, out, "2 x Gadget")
	assert.Contains(t, out, "4.50\n")
	last := rows[len(rows)-1]
	assert.True(t, strings.HasPrefix(last, "Total Amount:"))
	assert.True(t, strings.HasSuffix(last, "34.50"))
	for _, row := range rows {
		assert.LessOrEqual(t, len([]rune(row)), 30, "row %q wider than paper", row)
	}
}

func TestRenderTruncatesLongNames(t *testing.T) {
	lines := []cart.Line{{ItemID: 1, DisplayName: "Extraordinarily long product name", UnitPrice: decimal.NewFromInt(1000), Quantity: 12}}
	out := Render(FromCart(testHeader(time.Now()), lines))
	assert.Contains(t, out, "~")
	assert.Contains(t, out, "12000.00")
}

func TestArchivePrintAndGet(t *testing.T) {
	db := setupReceiptsTestDB(t)
	archive, err := NewArchive(NewRepository(db), testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	receipt := FromCart(testHeader(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)), widgetLines())
	require.NoError(t, archive.Print(ctx, receipt))

	got, err := archive.Get(ctx, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ClientID, got.ClientID)
	assert.Equal(t, "Acme", got.ClientName)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Widget", got.Lines[0].Name)
	assert.Equal(t, "Gadget", got.Lines[1].Name)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("34.5")))
}

func TestArchivePrintIsIdempotentPerSubmission(t *testing.T) {
	db := setupReceiptsTestDB(t)
	archive, err := NewArchive(NewRepository(db), testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	first := FromCart(testHeader(time.Now().UTC()), widgetLines())
	require.NoError(t, archive.Print(ctx, first))

	again := first
	again.ID = uuid.New()
	require.NoError(t, archive.Print(ctx, again))

	var count int64
	require.NoError(t, db.Model(&models.Receipt{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestArchiveRejectsEmptyReceipt(t *testing.T) {
	archive, err := NewArchive(NewRepository(setupReceiptsTestDB(t)), testLogger())
	require.NoError(t, err)
	err = archive.Print(context.Background(), Receipt{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestArchiveGetMissing(t *testing.T) {
	archive, err := NewArchive(NewRepository(setupReceiptsTestDB(t)), testLogger())
	require.NoError(t, err)
	_, err = archive.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestArchiveListPagesNewestFirst(t *testing.T) {
	db := setupReceiptsTestDB(t)
	archive, err := NewArchive(NewRepository(db), testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, archive.Print(ctx, FromCart(testHeader(base.Add(time.Duration(i)*time.Minute)), widgetLines())))
	}

	page, err := archive.List(ctx, ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Receipts, 2)
	assert.True(t, page.Receipts[0].IssuedAt.After(page.Receipts[1].IssuedAt))
	require.NotEmpty(t, page.NextCursor)

	rest, err := archive.List(ctx, ListParams{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Receipts, 1)
	assert.Empty(t, rest.NextCursor)
	assert.True(t, rest.Receipts[0].IssuedAt.Equal(base))

	_, err = archive.List(ctx, ListParams{Cursor: "%%%"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestPageCursorTokenRoundTrip(t *testing.T) {
	want := PageCursor{IssuedAt: time.Date(2024, 5, 1, 9, 30, 0, 123, time.UTC), ID: uuid.New()}
	got, err := parseCursor(want.Token())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IssuedAt.Equal(want.IssuedAt))
	assert.Equal(t, want.ID, got.ID)

	empty, err := parseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	for _, raw := range []string{"%%%", "bm9waXBl", "eC55", "MTIzLm5vdC1hLXV1aWQ"} {
		_, err := parseCursor(raw)
		assert.ErrorIsf(t, err, errMalformedCursor, "token %q", raw)
	}
}

func TestListParamsPageSize(t *testing.T) {
	cases := map[int]int{0: DefaultPageSize, -3: DefaultPageSize, 10: 10, 500: MaxPageSize}
	for in, want := range cases {
		assert.Equal(t, want, ListParams{Limit: in}.pageSize(), "limit %d", in)
	}
}

func TestNewArchiveValidation(t *testing.T) {
	_, err := NewArchive(nil, testLogger())
	assert.Error(t, err)
	_, err = NewArchive(NewRepository(setupReceiptsTestDB(t)), nil)
	assert.Error(t, err)
}
