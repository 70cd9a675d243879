package boxes

import (
	"errors"
	"io"
	"net/http"

	"github.com/angelmondragon/surprisebag-backend/api/middleware"
	"github.com/angelmondragon/surprisebag-backend/api/responses"
	"github.com/angelmondragon/surprisebag-backend/api/validators"
	boxsvc "github.com/angelmondragon/surprisebag-backend/internal/boxes"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/logger"
)

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "box service unavailable"))
}

// List returns the surprise boxes that can be reserved right now.
func List(svc boxsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		out, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func Detail(svc boxsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParseUUIDParam(r, "boxId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func Create(svc boxsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseUUIDParam(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input boxsvc.CreateBoxInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.Create(r.Context(), actor, vendorID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// Reserve claims boxes for the caller. An empty body reserves one box.
func Reserve(svc boxsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		boxID, err := validators.ParseUUIDParam(r, "boxId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input boxsvc.ReserveInput
		if err := validators.DecodeJSONBody(r, &input); err != nil && !isEmptyBody(err) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.Reserve(r.Context(), middleware.OwnerFromContext(r.Context()), boxID, input.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

func Reservations(svc boxsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		out, err := svc.Reservations(r.Context(), middleware.OwnerFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// Collect is called by the vendor when the buyer picks the box up.
func Collect(svc boxsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		actor, err := middleware.RequireActor(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, "reservationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.Collect(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// Cancel releases a reservation. The buyer or the vendor may cancel.
func Cancel(svc boxsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParseUUIDParam(r, "reservationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		caller := boxsvc.Caller{Owner: middleware.OwnerFromContext(r.Context())}
		if actor, ok := middleware.ActorFromContext(r.Context()); ok {
			caller.Actor = actor
		}
		out, err := svc.Cancel(r.Context(), caller, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// PickupQR renders the reservation's pickup code as a PNG.
func PickupQR(svc boxsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParseUUIDParam(r, "reservationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		png, err := svc.PickupQR(r.Context(), middleware.OwnerFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePNG(w, png)
	}
}

func isEmptyBody(err error) bool {
	return errors.Is(err, io.EOF)
}
