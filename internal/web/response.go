package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jaminalder/tictactoe-tree/internal/repository"
)

const internalErrorJSON = "{\"status\": 500,\"body\":{\"error\": \"Internal server error\"}}"

type statsResponse struct {
	Tally  map[string]int64    `json:"tally"`
	Recent []repository.Result `json:"recent"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		writeInternalError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, internalErrorJSON)
}
