package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// validateIDs rejects ids that are not UUIDs before they reach a uuid column.
// Pairs are field name then value.
func validateIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if _, err := uuid.Parse(pairs[i+1]); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be a UUID", pairs[i]))
		}
	}
	return nil
}
