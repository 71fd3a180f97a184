package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DevenGibbs/starter-restaurant-reservation/hub"
	"github.com/DevenGibbs/starter-restaurant-reservation/metrics"
	"github.com/DevenGibbs/starter-restaurant-reservation/middlewares"
	"github.com/DevenGibbs/starter-restaurant-reservation/models"
	"github.com/DevenGibbs/starter-restaurant-reservation/reservation"
	"github.com/DevenGibbs/starter-restaurant-reservation/store"
	"github.com/DevenGibbs/starter-restaurant-reservation/utils"
)

type TableController struct {
	Store store.TableStore
	Hub   *hub.Hub
}

func NewTableController(s store.TableStore, h *hub.Hub) *TableController {
	return &TableController{Store: s, Hub: h}
}

// CreateTable -> menambahkan meja baru, langsung ditempati jika reservation_id dikirim
func (tc *TableController) CreateTable(c *gin.Context) {
	payload, err := middlewares.DecodeData(c)
	if err != nil {
		respondFailure(c, err)
		return
	}
	in, err := reservation.ValidateTable(payload)
	if err != nil {
		respondFailure(c, err)
		return
	}

	table, err := tc.Store.CreateTable(c.Request.Context(), &models.Table{
		TableName:     in.Name,
		Capacity:      in.Capacity,
		ReservationID: in.ReservationID,
	})
	if err != nil {
		respondFailure(c, err)
		return
	}

	tc.Hub.Broadcast(hub.Message{Event: hub.EventTableCreate, Data: table})
	if table.Occupied() {
		metrics.IncTableSeated()
		tc.Hub.Broadcast(hub.Message{Event: hub.EventTableSeat, Data: table})
	}

	utils.InfoLogger.Printf("New table created: %s (capacity=%d)", table.TableName, table.Capacity)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> seluruh meja, urut berdasarkan nama
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Store.ListTables(c.Request.Context())
	if err != nil {
		respondFailure(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTableByID(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}
	table, err := tc.Store.FindTable(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// SeatTable -> PUT /tables/:table_id/seat {"data": {"reservation_id": n}}
func (tc *TableController) SeatTable(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}
	payload, err := middlewares.DecodeData(c)
	if err != nil {
		respondFailure(c, err)
		return
	}
	reservationID, err := reservation.ValidateSeat(payload)
	if err != nil {
		respondFailure(c, err)
		return
	}

	table, err := tc.Store.Seat(c.Request.Context(), id, reservationID)
	if err != nil {
		respondFailure(c, err)
		return
	}

	metrics.IncTableSeated()
	metrics.IncStatusTransition(string(reservation.Booked), string(reservation.Seated))
	tc.Hub.Broadcast(hub.Message{Event: hub.EventTableSeat, Data: table})

	utils.InfoLogger.Printf("Reservation %d seated at table %d", reservationID, table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table seated", table)
}

// FinishTable -> DELETE /tables/:table_id/seat, mengosongkan meja
func (tc *TableController) FinishTable(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}

	table, err := tc.Store.Finish(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, err)
		return
	}

	metrics.IncTableFinished()
	metrics.IncStatusTransition(string(reservation.Seated), string(reservation.Finished))
	tc.Hub.Broadcast(hub.Message{Event: hub.EventTableFinish, Data: table})

	utils.InfoLogger.Printf("Table %d finished", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table finished", table)
}

func tableID(c *gin.Context) (uint, bool) {
	raw := c.Param("table_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondFailure(c, reservation.NotFound("Table %s cannot be found.", raw))
		return 0, false
	}
	return uint(id), true
}
