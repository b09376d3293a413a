package utils

import (
	"encoding/json"
	std_errors "errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/bobaboard/bobaserver/internal/errors"
	"github.com/bobaboard/bobaserver/internal/logger"
)

func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	// services wrap storage errors, so unwrap with As
	var e *errors.ErrorWithStatusCode
	if std_errors.As(err, &e) {
		http.Error(w, e.Message, e.StatusCode)
		return
	}
	// default error is 500
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Warn("invalid request body", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest}
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(body); err != nil {
		logger.Log.Warn("request body failed validation", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: http.StatusBadRequest}
	}
	return nil
}
