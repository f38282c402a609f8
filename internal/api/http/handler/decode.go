package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dtroode/eventhub-server/internal/model"
)

const maxBodySize = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body", model.ErrInvalidInput)
	}
	return nil
}
