package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"eco-route-engine/internal/api/dto"
	"eco-route-engine/internal/domain"
	"eco-route-engine/internal/ports"
	"eco-route-engine/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const defaultStartTime = "09:00"

// OptimizeHandler accepts a delivery run and returns the baseline route,
// the optimized variants, per-stop schedules, and savings percentages.
type OptimizeHandler struct {
	Engine   *services.Engine
	Geocoder ports.Geocoder
	Validate *validator.Validate
	Timeout  time.Duration // overall per-request budget
}

// Optimize validates and resolves the request, then runs the engine under
// the request's time budget. Validation happens before any oracle call;
// budget exhaustion cancels in-flight oracle work and discards partials.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, domain.KindValidation, "method not allowed")
		return
	}

	var req dto.OptimizeRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, domain.KindValidation, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, domain.KindValidation, "body must contain only one JSON object")
		return
	}

	if err := h.validate(&req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	engineReq, err := h.resolve(ctx, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.Engine.Optimize(ctx, engineReq)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"kind": domain.KindOf(err),
			"err":  err,
		}).Warn("optimize failed")
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromResult(result))
}

// validate rejects structurally bad requests before any oracle traffic.
func (h *OptimizeHandler) validate(req *dto.OptimizeRequest) error {
	if err := h.Validate.Struct(req); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			fe := invalid[0]
			return domain.ValidationError(fieldName(fe.Field()), "failed validation rule %q", fe.Tag())
		}
		return domain.ValidationError("", "invalid request: %v", err)
	}

	if len(req.Stops) > domain.MaxStops {
		return domain.NewError(
			domain.KindTooManyStops,
			"%d stops exceed the maximum of %d",
			len(req.Stops), domain.MaxStops,
		)
	}

	for i, stop := range req.Stops {
		if err := validLocation(stop); err != nil {
			return domain.ValidationError(fmt.Sprintf("stops[%d]", i), "%v", err)
		}
	}
	if err := validLocation(req.Origin); err != nil {
		return domain.ValidationError("origin", "%v", err)
	}
	if err := validLocation(req.Destination); err != nil {
		return domain.ValidationError("destination", "%v", err)
	}

	return nil
}

func validLocation(l *dto.Location) error {
	if l == nil {
		return fmt.Errorf("location is required")
	}
	if l.Coords != nil {
		if !l.Coords.Valid() {
			return fmt.Errorf("coordinates (%g, %g) outside valid range", l.Coords.Lat, l.Coords.Lon)
		}
		return nil
	}
	if l.Address == "" {
		return fmt.Errorf("location must be an address or a [lat, lon] pair")
	}
	return nil
}

// resolve turns request locations into waypoints, geocoding address
// strings through the oracle's geocoder.
func (h *OptimizeHandler) resolve(ctx context.Context, req *dto.OptimizeRequest) (domain.RouteRequest, error) {
	origin, err := h.resolveLocation(ctx, req.Origin, "origin")
	if err != nil {
		return domain.RouteRequest{}, err
	}

	destination, err := h.resolveLocation(ctx, req.Destination, "destination")
	if err != nil {
		return domain.RouteRequest{}, err
	}

	stops := make([]domain.Waypoint, 0, len(req.Stops))
	for i, stop := range req.Stops {
		wp, err := h.resolveLocation(ctx, stop, fmt.Sprintf("stops[%d]", i))
		if err != nil {
			return domain.RouteRequest{}, err
		}
		stops = append(stops, wp)
	}

	startText := req.StartTime
	if startText == "" {
		startText = defaultStartTime
	}
	start, err := time.Parse("15:04", startText)
	if err != nil {
		return domain.RouteRequest{}, domain.ValidationError("start_time", "must be HH:MM, got %q", req.StartTime)
	}

	return domain.RouteRequest{
		Origin:      origin,
		Destination: destination,
		Stops:       stops,
		StartTime:   start,
	}, nil
}

func (h *OptimizeHandler) resolveLocation(ctx context.Context, l *dto.Location, field string) (domain.Waypoint, error) {
	if l.Coords != nil {
		address := l.Address
		if address == "" {
			address = fmt.Sprintf("%.5f, %.5f", l.Coords.Lat, l.Coords.Lon)
		}
		return domain.Waypoint{Address: address, Coords: *l.Coords}, nil
	}

	coords, err := h.Geocoder.Geocode(ctx, l.Address)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Kind == domain.KindValidation && de.Field == "" {
			de.Field = field
		}
		return domain.Waypoint{}, fmt.Errorf("resolve %s: %w", field, err)
	}

	return domain.Waypoint{Address: l.Address, Coords: coords}, nil
}

// fieldName maps the struct field reported by the validator to its JSON name.
func fieldName(structField string) string {
	switch structField {
	case "Origin":
		return "origin"
	case "Destination":
		return "destination"
	case "Stops":
		return "stops"
	case "StartTime":
		return "start_time"
	default:
		return structField
	}
}
