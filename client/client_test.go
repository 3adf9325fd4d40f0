package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/flatmate/household-engine/api"
	"github.com/flatmate/household-engine/household/store"
)

const household = `{"rooms": [
	{"id": "room-1", "name": "Blue", "base_price": "500", "multiplier": 25, "purchase_multiplier": 2},
	{"id": "room-2", "name": "Green", "base_price": "400", "multiplier": 35, "purchase_multiplier": 1}
]}`

func newServer(t *testing.T) string {
	t.Helper()
	h := api.NewHandler(store.NewMemory(), api.Options{
		InitialPeriod: "2026-W42",
		Now:           func() time.Time { return time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC) },
	})
	srv := httptest.NewServer(api.NewRouter(h, api.RouterOptions{}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestClient_CalendarFlow(t *testing.T) {
	ctx := context.Background()
	url := newServer(t)
	admin := New(url, "", nil)

	// GIVEN: an imported household
	imported, err := admin.ImportRooms(ctx, household)
	require.NoError(t, err)
	assert.Equal(t, []string{"room-1", "room-2"}, imported.Created)

	rooms, err := admin.Rooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	// WHEN: room-1 reads its calendar
	me := New(url, "room-1", nil)
	entries, err := me.Calendar(ctx)

	// THEN: its own turn is editable
	require.NoError(t, err)
	require.Len(t, entries, 2)
	own := entries[1]
	assert.Equal(t, "room-1", own.RoomID)
	assert.True(t, own.Editable)

	// AND: ticking tasks works on its own turn only
	require.NoError(t, me.SetTasks(ctx, own.ID, api.TaskStatesDTO{Kitchen: true}))
	err = me.SetTasks(ctx, entries[0].ID, api.TaskStatesDTO{Kitchen: true})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestClient_BillingFlow(t *testing.T) {
	ctx := context.Background()
	url := newServer(t)
	admin := New(url, "", nil)
	_, err := admin.ImportRooms(ctx, household)
	require.NoError(t, err)

	bill := api.BillDTO{
		ID:        "2026-10",
		Media:     decimal.NewFromInt(100),
		Energy:    decimal.NewFromInt(50),
		Internet:  decimal.NewFromInt(30),
		Purchases: decimal.NewFromInt(20),
	}

	// WHEN: adding the bill twice
	outcome, err := admin.AddBill(ctx, bill)
	require.NoError(t, err)
	assert.Equal(t, "applied", outcome)
	outcome, err = admin.AddBill(ctx, bill)

	// THEN: the second call reports the existing bill without failing
	require.NoError(t, err)
	assert.Equal(t, "already_exists", outcome)

	bills, err := admin.Bills(ctx)
	require.NoError(t, err)
	assert.Len(t, bills, 1)

	// AND: room-1 sees and accepts its payment
	me := New(url, "room-1", nil)
	active, found, err := me.ActivePayment(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "585.00", active.Prices.Total)

	require.NoError(t, me.SetAccepted(ctx, active.ID, true))
	_, found, err = me.ActivePayment(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	all, err := admin.Payments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	created, err := admin.Reconcile(ctx, "2026-10")
	require.NoError(t, err)
	assert.Zero(t, created)

	// AND: the export is a workbook
	var buf bytes.Buffer
	require.NoError(t, admin.ExportPayments(ctx, &buf))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	admin := New(newServer(t), "", nil)

	_, err := admin.Reconcile(ctx, "2026-09")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Failed to reconcile bill", apiErr.Message)

	err = admin.LoadScenario(ctx, "castle")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestClient_LoadScenario(t *testing.T) {
	ctx := context.Background()
	admin := New(newServer(t), "", nil)

	require.NoError(t, admin.LoadScenario(ctx, api.ScenarioFourRoomFlat))

	rooms, err := admin.Rooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 4)
}

func TestClient_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "", nil)
	c.http.SetRetryCount(0)

	_, err := c.Rooms(context.Background())

	assert.ErrorContains(t, err, "failed to call household API")
}
