package services

import (
	"fmt"
	"strconv"

	"github.com/kartiksrathod/Eduu/internal/apperr"
)

type Pagination struct {
	Total    int64 `json:"total"`
	Skip     int64 `json:"skip"`
	Limit    int64 `json:"limit"`
	Returned int   `json:"returned"`
}

// Pager turns raw query values into a skip/limit pair.
type Pager struct {
	Default int
	Max     int
}

// Parse validates skip (>= 0) and limit (1..Max). Empty values take defaults.
func (p Pager) Parse(skipRaw, limitRaw string) (int64, int64, error) {
	skip, limit := int64(0), int64(p.Default)

	if skipRaw != "" {
		n, err := strconv.ParseInt(skipRaw, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, apperr.BadRequest("skip must be a non-negative integer")
		}
		skip = n
	}
	if limitRaw != "" {
		n, err := strconv.ParseInt(limitRaw, 10, 64)
		if err != nil || n < 1 || n > int64(p.Max) {
			return 0, 0, apperr.BadRequest(fmt.Sprintf("limit must be between 1 and %d", p.Max))
		}
		limit = n
	}
	return skip, limit, nil
}
