package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/DevenGibbs/starter-restaurant-reservation/hub"
	"github.com/DevenGibbs/starter-restaurant-reservation/metrics"
	"github.com/DevenGibbs/starter-restaurant-reservation/middlewares"
	"github.com/DevenGibbs/starter-restaurant-reservation/models"
	"github.com/DevenGibbs/starter-restaurant-reservation/reservation"
	"github.com/DevenGibbs/starter-restaurant-reservation/store"
	"github.com/DevenGibbs/starter-restaurant-reservation/utils"
)

// ReservationController runs after the validation chain for its route, so
// every handler can rely on the request already being checked.
type ReservationController struct {
	Store store.ReservationStore
	Rules reservation.Rules
	Hub   *hub.Hub
}

func NewReservationController(s store.ReservationStore, rules reservation.Rules, h *hub.Hub) *ReservationController {
	return &ReservationController{Store: s, Rules: rules, Hub: h}
}

// Chains used by the router in front of each handler.
func (rc *ReservationController) CreateChain() reservation.Pipeline {
	return reservation.CreateChain(rc.Rules)
}

func (rc *ReservationController) ReadChain() reservation.Pipeline {
	return reservation.ReadChain(rc.Store)
}

func (rc *ReservationController) UpdateChain() reservation.Pipeline {
	return reservation.UpdateChain(rc.Store, rc.Rules)
}

func (rc *ReservationController) StatusChain() reservation.Pipeline {
	return reservation.StatusChain(rc.Store)
}

func (rc *ReservationController) DeleteChain() reservation.Pipeline {
	return reservation.DeleteChain(rc.Store)
}

// ListReservations -> GET /reservations?date=YYYY-MM-DD | ?mobile_number=...
func (rc *ReservationController) ListReservations(c *gin.Context) {
	q, err := reservation.ParseListQuery(c.Query("date"), c.Query("mobile_number"))
	if err != nil {
		respondFailure(c, err)
		return
	}

	list, err := q.Run(c.Request.Context(), rc.Store)
	if err != nil {
		respondFailure(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", list)
}

func (rc *ReservationController) CreateReservation(c *gin.Context) {
	in := middlewares.RequestFrom(c).Input

	rec := &models.Reservation{Status: string(reservation.Booked)}
	apply(rec, in)

	created, err := rc.Store.Insert(c.Request.Context(), rec)
	if err != nil {
		respondFailure(c, err)
		return
	}

	metrics.IncReservationCreated()
	rc.Hub.Broadcast(hub.Message{Event: hub.EventReservationCreate, Data: created})

	utils.InfoLogger.Printf("Reservation %d created for %s on %s %s", created.ID, created.LastName, created.ReservationDate, created.ReservationTime)
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", created)
}

func (rc *ReservationController) GetReservation(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", middlewares.RequestFrom(c).Record)
}

// UpdateReservation replaces every editable field of the record.
func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	req := middlewares.RequestFrom(c)

	rec := *req.Record
	from := reservation.Status(rec.Status)
	apply(&rec, req.Input)
	if req.Input.HasStatus {
		rec.Status = string(req.Input.Status)
	}

	updated, err := rc.Store.Replace(c.Request.Context(), &rec)
	if err != nil {
		respondFailure(c, err)
		return
	}

	if to := reservation.Status(updated.Status); to != from {
		rc.recordTransition(from, to, updated.ID)
	}
	rc.Hub.Broadcast(hub.Message{Event: hub.EventReservationUpdate, Data: updated})

	utils.RespondJSON(c, http.StatusOK, "Reservation updated", updated)
}

func (rc *ReservationController) UpdateReservationStatus(c *gin.Context) {
	req := middlewares.RequestFrom(c)

	rec := *req.Record
	from := reservation.Status(rec.Status)
	rec.Status = string(req.Status)

	updated, err := rc.Store.Replace(c.Request.Context(), &rec)
	if err != nil {
		respondFailure(c, err)
		return
	}

	rc.recordTransition(from, req.Status, updated.ID)
	rc.Hub.Broadcast(hub.Message{Event: hub.EventReservationStatus, Data: updated})

	utils.RespondJSON(c, http.StatusOK, "Reservation status updated", updated)
}

func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	req := middlewares.RequestFrom(c)

	if err := rc.Store.DeleteByID(c.Request.Context(), req.Record.ID); err != nil {
		respondFailure(c, err)
		return
	}

	rc.Hub.Broadcast(hub.Message{Event: hub.EventReservationDelete, Data: gin.H{"reservation_id": req.Record.ID}})

	utils.InfoLogger.Printf("Reservation %d deleted", req.Record.ID)
	utils.RespondNoContent(c)
}

func (rc *ReservationController) recordTransition(from, to reservation.Status, id uint) {
	metrics.IncStatusTransition(string(from), string(to))
	if !reservation.IsNominal(from, to) {
		utils.InfoLogger.WithFields(logrus.Fields{
			"reservation_id": id,
			"from":           from,
			"to":             to,
		}).Warn("Unusual status change accepted")
	}
}

func apply(rec *models.Reservation, in *reservation.Input) {
	rec.FirstName = in.FirstName
	rec.LastName = in.LastName
	rec.MobileNumber = in.MobileNumber
	rec.ReservationDate = in.Date
	rec.ReservationTime = in.Time
	rec.People = in.People
}

// respondFailure writes err with the status its kind maps to. Unexpected
// errors are logged and reported without internal detail.
func respondFailure(c *gin.Context, err error) {
	if kind := reservation.KindOf(err); kind != 0 {
		metrics.IncRejection(kind.String())
	}
	utils.RespondError(c, reservation.StatusCode(err), err)
}
