// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/core/types"
	"recipecost/internal/domain"
)

func init() {
	// Money and quantities travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse converts every item of res with conv.
func NewListResponse[S, T any](res domain.ListResult[S], conv func(S) T) ListResponse[T] {
	items := make([]T, len(res.Items))
	for i, it := range res.Items {
		items[i] = conv(it)
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Helpers ---

// display rounds for presentation.
func display(d decimal.Decimal) decimal.Decimal {
	return types.Display(d)
}

// idErrors collects ids that failed to parse, keyed by JSON field path.
type idErrors map[string]string

func (e idErrors) parse(field, raw string) id.ID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return id.Nil()
	}
	v, err := id.Parse(raw)
	if err != nil {
		e[field] = fmt.Sprintf("invalid id %q", raw)
		return id.Nil()
	}
	return v
}

func (e idErrors) parseOptional(field string, raw *string) *id.ID {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	v := e.parse(field, *raw)
	if id.IsNil(v) {
		return nil
	}
	return &v
}

func (e idErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return apperror.NewFieldValidation(map[string]string(e))
}

// ParseIDs parses a list of ids, reporting every bad entry under field[i].
func ParseIDs(field string, raws []string) ([]id.ID, error) {
	errs := idErrors{}
	out := make([]id.ID, 0, len(raws))
	for i, raw := range raws {
		key := fmt.Sprintf("%s[%d]", field, i)
		if strings.TrimSpace(raw) == "" {
			errs[key] = "id is required"
			continue
		}
		out = append(out, errs.parse(key, raw))
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return out, nil
}
