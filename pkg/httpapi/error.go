package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is the JSON body of every API error response.
type ErrorEnvelope struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

// WriteRaw writes an already encoded JSON document.
func WriteRaw(w http.ResponseWriter, status int, body []byte) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

func WriteError(w http.ResponseWriter, status int, detail string) error {
	return WriteJSON(w, status, &ErrorEnvelope{Detail: detail})
}
