package utils

import (
	"encoding/json"
	"net/http"

	"checkout-flow-api/models"
)

func SendJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// SendErrorResponse writes the error payload. Every failure of the payment
// routes uses 500 regardless of category.
func SendErrorResponse(w http.ResponseWriter, resp models.ErrorResponse) error {
	return SendJSON(w, http.StatusInternalServerError, resp)
}

func SendSuccessResponse(w http.ResponseWriter, data any) error {
	return SendJSON(w, http.StatusOK, data)
}
