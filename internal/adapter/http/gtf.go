package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
	"github.com/couchcryptid/geomag-gtf-service/internal/pipeline"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// gtfRequest is the body of POST /v1/gtf. Epoch defaults to now.
type gtfRequest struct {
	ID         string     `json:"id" validate:"max=128"`
	Latitude   *float64   `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude  *float64   `json:"longitude" validate:"required,gte=-180,lt=360"`
	AltitudeKm float64    `json:"altitude_km" validate:"gte=0"`
	Epoch      *time.Time `json:"epoch"`
	Kp         *float64   `json:"kp" validate:"omitempty,gte=0,lte=9"`
	Spectrum   []float64  `json:"spectrum" validate:"omitempty,max=100000"`
	View       string     `json:"view" default:"full" validate:"oneof=full summary"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields []ValidationError `json:"fields,omitempty"`
}

// summaryResponse is an Assessment without the sampled curve.
type summaryResponse struct {
	ID                  string          `json:"id"`
	Query               domain.Query    `json:"query"`
	CutoffRigidity      float64         `json:"cutoff_rigidity"`
	GeomagneticLatitude float64         `json:"geomagnetic_latitude"`
	Activity            domain.Activity `json:"activity"`
	Level               domain.Level    `json:"level"`
	ComputedAt          time.Time       `json:"computed_at"`
}

func (s *Server) handleGTF(w http.ResponseWriter, r *http.Request) {
	var req gtfRequest
	if err := defaults.Set(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	if err := validate.StructCtx(r.Context(), &req); err != nil {
		writeValidationError(w, err)
		return
	}

	epoch := s.assessor.Now()
	if req.Epoch != nil {
		epoch = *req.Epoch
	}
	var spectrum domain.Spectrum
	if req.Spectrum != nil {
		spectrum = domain.Spectrum(req.Spectrum)
	}

	a, err := s.assessor.Assess(r.Context(), pipeline.Request{
		ID: req.ID,
		Query: domain.Query{
			Latitude:   *req.Latitude,
			Longitude:  *req.Longitude,
			AltitudeKm: req.AltitudeKm,
			Epoch:      epoch,
		},
		Spectrum: spectrum,
		Kp:       req.Kp,
	})
	if err != nil {
		s.writeAssessError(w, r, err)
		return
	}

	if req.View == "summary" {
		writeJSON(w, http.StatusOK, summaryResponse{
			ID:                  a.ID,
			Query:               a.Query,
			CutoffRigidity:      a.Result.CutoffRigidity,
			GeomagneticLatitude: a.Result.GeomagneticLatitude,
			Activity:            a.Activity,
			Level:               a.Level,
			ComputedAt:          a.ComputedAt,
		})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleEnvironment(w http.ResponseWriter, r *http.Request) {
	rc, err := queryFloat(r, "rc")
	if err != nil || rc < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "rc must be a non-negative number"})
		return
	}
	kp, err := queryFloat(r, "kp")
	if err != nil || !domain.ValidKp(kp) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "kp must be a number in [0, 9]"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cutoff_rigidity": rc,
		"kp":              kp,
		"level":           domain.ClassifyEnvironment(rc, kp),
	})
}

func (s *Server) writeAssessError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *domain.InputError
	switch {
	case errors.As(err, &inputErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  err.Error(),
			Fields: []ValidationError{{Code: "ERR_INVALID", Field: inputErr.Field, Message: inputErr.Reason}},
		})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		s.logger.Warn("assessment upstream failure", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "geomagnetic field model unavailable"})
	default:
		s.logger.Error("assessment failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	fields := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func queryFloat(r *http.Request, key string) (float64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be finite", key)
	}
	return v, nil
}
