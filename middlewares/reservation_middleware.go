package middlewares

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DevenGibbs/starter-restaurant-reservation/metrics"
	"github.com/DevenGibbs/starter-restaurant-reservation/reservation"
	"github.com/DevenGibbs/starter-restaurant-reservation/utils"
)

const requestKey = "reservationRequest"

// RequestFrom returns the reservation request carried by c, creating it on
// first use.
func RequestFrom(c *gin.Context) *reservation.Request {
	if v, ok := c.Get(requestKey); ok {
		if r, ok := v.(*reservation.Request); ok {
			return r
		}
	}
	r := &reservation.Request{}
	c.Set(requestKey, r)
	return r
}

// ReservationPayload binds the request body into the reservation request.
// The body may wrap the record as {"data": {...}} or send it bare.
func ReservationPayload() gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := DecodeData(c)
		if err != nil {
			abortWith(c, err)
			return
		}
		RequestFrom(c).Payload = payload
		c.Next()
	}
}

// DecodeData reads a JSON object body, unwrapping a top-level "data" object
// when present. Keys next to "data" are rejected rather than dropped. An
// empty body decodes to an empty map.
func DecodeData(c *gin.Context) (map[string]any, error) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, reservation.Invalid("Request body must be a JSON object")
	}
	if body == nil {
		return map[string]any{}, nil
	}
	inner, ok := body["data"].(map[string]any)
	if !ok {
		return body, nil
	}
	if len(body) > 1 {
		extra := make([]string, 0, len(body)-1)
		for k := range body {
			if k != "data" {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		return nil, reservation.Invalid("Invalid field(s): %s", strings.Join(extra, ", "))
	}
	return inner, nil
}

// ReservationID reads the reservation id from the named path parameter.
// An id that is not a positive integer is left as zero so the lookup step
// reports it as not found.
func ReservationID(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := RequestFrom(c)
		r.RawID = c.Param(param)
		if id, err := strconv.ParseUint(r.RawID, 10, 64); err == nil {
			r.ID = uint(id)
		}
		c.Next()
	}
}

// Pipeline turns each step into its own handler so the chain can be
// spliced into a route next to other middlewares.
func Pipeline(steps ...reservation.Step) []gin.HandlerFunc {
	handlers := make([]gin.HandlerFunc, 0, len(steps))
	for _, step := range steps {
		handlers = append(handlers, ReservationStep(step))
	}
	return handlers
}

func ReservationStep(step reservation.Step) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := step(c.Request.Context(), RequestFrom(c)); err != nil {
			abortWith(c, err)
			return
		}
		c.Next()
	}
}

func abortWith(c *gin.Context, err error) {
	defer c.Abort()

	kind := reservation.KindOf(err)
	if kind == 0 {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	metrics.IncRejection(kind.String())
	utils.InfoLogger.WithField("kind", kind.String()).Infof("Rejected %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	utils.RespondError(c, reservation.StatusCode(err), err)
}
