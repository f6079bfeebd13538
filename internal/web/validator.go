package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/justinabrahms/pollchess/internal/chess"
)

var validate = newValidator()

// MoveRequest is the body of a move submission.
type MoveRequest struct {
	From      string `json:"from" validate:"required,square"`
	To        string `json:"to" validate:"required,square"`
	Promotion string `json:"promotion,omitempty" validate:"omitempty,promotion"`
}

type validationError struct {
	details string
}

func (e *validationError) Error() string {
	return "invalid request: " + e.details
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("square", func(fl validator.FieldLevel) bool {
		_, err := chess.ParsePosition(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("promotion", func(fl validator.FieldLevel) bool {
		t, err := chess.ParsePieceType(fl.Field().String())
		if err != nil {
			return false
		}
		return t == chess.Queen || t == chess.Rook || t == chess.Bishop || t == chess.Knight
	})
	return v
}

func decodeAndValidate(r *http.Request, req interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return &validationError{details: "invalid request body"}
	}

	errs := validate.Struct(req)
	if errs == nil {
		return nil
	}
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		return &validationError{details: errs.Error()}
	}

	var details strings.Builder
	for _, err := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch err.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", err.Field()))
		case "square":
			details.WriteString(fmt.Sprintf("%s must be a square from a1 to h8", err.Field()))
		case "promotion":
			details.WriteString(fmt.Sprintf("%s must be one of queen, rook, bishop, knight", err.Field()))
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()))
		}
	}
	return &validationError{details: details.String()}
}
