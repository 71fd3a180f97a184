package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTable(t *testing.T, r http.Handler, payload map[string]any) tableView {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/tables", map[string]any{"data": payload})
	require.Equal(t, http.StatusCreated, w.Code, resp.Message)
	var tv tableView
	require.NoError(t, json.Unmarshal(resp.Data, &tv))
	return tv
}

func TestCreateAndListTables(t *testing.T) {
	r := setupFloorRouter(t, setupTestDB(t))

	createTable(t, r, map[string]any{"table_name": "#2", "capacity": 6})
	createTable(t, r, map[string]any{"table_name": "Bar #1", "capacity": 1})
	createTable(t, r, map[string]any{"table_name": "#1", "capacity": 4})

	w, resp := doJSON(t, r, http.MethodGet, "/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "List of tables", resp.Message)

	var tables []tableView
	require.NoError(t, json.Unmarshal(resp.Data, &tables))
	require.Len(t, tables, 3)
	assert.Equal(t, "#1", tables[0].TableName)
	assert.Equal(t, "#2", tables[1].TableName)
	assert.Equal(t, "Bar #1", tables[2].TableName)
	assert.Nil(t, tables[0].ReservationID)
}

func TestCreateTableValidation(t *testing.T) {
	r := setupFloorRouter(t, setupTestDB(t))

	w, resp := doJSON(t, r, http.MethodPost, "/tables", map[string]any{"data": map[string]any{"table_name": "A", "capacity": 0}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid input(s): table_name, capacity", resp.Message)

	w, resp = doJSON(t, r, http.MethodPost, "/tables", map[string]any{"data": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required field(s): table_name, capacity", resp.Message)
}

func TestCreateTableSeatsReservation(t *testing.T) {
	r := setupFloorRouter(t, setupTestDB(t))
	rv := createReservation(t, r, validReservation())

	tv := createTable(t, r, map[string]any{"table_name": "Patio", "capacity": 2, "reservation_id": rv.ID})
	require.NotNil(t, tv.ReservationID)
	assert.Equal(t, rv.ID, *tv.ReservationID)

	_, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/reservations/%d", rv.ID), nil)
	var got reservationView
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "seated", got.Status)
}

func TestSeatAndFinishTable(t *testing.T) {
	r := setupFloorRouter(t, setupTestDB(t))

	small := createTable(t, r, map[string]any{"table_name": "#1", "capacity": 2})
	big := createTable(t, r, map[string]any{"table_name": "#2", "capacity": 8})
	party := createReservation(t, r, with(validReservation(), "people", 5))
	other := createReservation(t, r, validReservation())

	seat := func(tableID, reservationID uint) (int, string) {
		w, resp := doJSON(t, r, http.MethodPut, fmt.Sprintf("/tables/%d/seat", tableID), map[string]any{"data": map[string]any{"reservation_id": reservationID}})
		return w.Code, resp.Message
	}

	code, msg := seat(small.ID, party.ID)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, fmt.Sprintf("Table %d does not have sufficient capacity for 5 people.", small.ID), msg)

	code, msg = seat(big.ID, 999)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Reservation 999 cannot be found.", msg)

	code, msg = seat(999, party.ID)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Table 999 cannot be found.", msg)

	code, _ = seat(big.ID, party.ID)
	require.Equal(t, http.StatusOK, code)

	code, msg = seat(big.ID, other.ID)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, fmt.Sprintf("Table %d is occupied.", big.ID), msg)

	code, msg = seat(small.ID, party.ID)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, fmt.Sprintf("Reservation %d is already seated.", party.ID), msg)

	w, resp := doJSON(t, r, http.MethodPut, fmt.Sprintf("/tables/%d/seat", small.ID), map[string]any{"data": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required field(s): reservation_id", resp.Message)

	w, resp = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/tables/%d/seat", big.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, resp.Message)
	var freed tableView
	require.NoError(t, json.Unmarshal(resp.Data, &freed))
	assert.Nil(t, freed.ReservationID)

	_, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/reservations/%d", party.ID), nil)
	var got reservationView
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "finished", got.Status)

	w, resp = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/tables/%d/seat", big.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, fmt.Sprintf("Table %d is not occupied.", big.ID), resp.Message)

	code, msg = seat(big.ID, party.ID)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, fmt.Sprintf("Reservation %d is finished and cannot be seated.", party.ID), msg)
}

func TestGetTableByID(t *testing.T) {
	r := setupFloorRouter(t, setupTestDB(t))
	tv := createTable(t, r, map[string]any{"table_name": "#7", "capacity": 4})

	w, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/tables/%d", tv.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got tableView
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, tv, got)

	w, resp = doJSON(t, r, http.MethodGet, "/tables/x", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Table x cannot be found.", resp.Message)
}

func TestStatusChangeFreesTable(t *testing.T) {
	r := setupFloorRouter(t, setupTestDB(t))

	for _, status := range []string{"finished", "cancelled"} {
		t.Run(status, func(t *testing.T) {
			tv := createTable(t, r, map[string]any{"table_name": "Patio " + status, "capacity": 4})
			party := createReservation(t, r, validReservation())

			w, resp := doJSON(t, r, http.MethodPut, fmt.Sprintf("/tables/%d/seat", tv.ID), map[string]any{"data": map[string]any{"reservation_id": party.ID}})
			require.Equal(t, http.StatusOK, w.Code, resp.Message)

			w, resp = doJSON(t, r, http.MethodPut, fmt.Sprintf("/reservations/%d/status", party.ID), map[string]any{"data": map[string]any{"status": status}})
			require.Equal(t, http.StatusOK, w.Code, resp.Message)

			w, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/tables/%d", tv.ID), nil)
			require.Equal(t, http.StatusOK, w.Code)
			var got tableView
			require.NoError(t, json.Unmarshal(resp.Data, &got))
			assert.Nil(t, got.ReservationID)

			// meja sudah kosong, bisa dipakai pesta berikutnya
			next := createReservation(t, r, validReservation())
			w, resp = doJSON(t, r, http.MethodPut, fmt.Sprintf("/tables/%d/seat", tv.ID), map[string]any{"data": map[string]any{"reservation_id": next.ID}})
			assert.Equal(t, http.StatusOK, w.Code, resp.Message)

			_, resp = doJSON(t, r, http.MethodGet, fmt.Sprintf("/reservations/%d", party.ID), nil)
			var rv reservationView
			require.NoError(t, json.Unmarshal(resp.Data, &rv))
			assert.Equal(t, status, rv.Status)
		})
	}
}

func TestFullUpdateToFinishedFreesTable(t *testing.T) {
	r := setupFloorRouter(t, setupTestDB(t))
	tv := createTable(t, r, map[string]any{"table_name": "#9", "capacity": 4})
	party := createReservation(t, r, validReservation())

	w, resp := doJSON(t, r, http.MethodPut, fmt.Sprintf("/tables/%d/seat", tv.ID), map[string]any{"data": map[string]any{"reservation_id": party.ID}})
	require.Equal(t, http.StatusOK, w.Code, resp.Message)

	w, resp = doJSON(t, r, http.MethodPut, fmt.Sprintf("/reservations/%d", party.ID), map[string]any{"data": with(validReservation(), "status", "finished")})
	require.Equal(t, http.StatusOK, w.Code, resp.Message)

	w, resp = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/tables/%d/seat", tv.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, fmt.Sprintf("Table %d is not occupied.", tv.ID), resp.Message)
}
