package http

import (
	"context"
	"net/http"

	"gnlreports/internal/middleware"
	"gnlreports/internal/period"
	"gnlreports/internal/services"
)

// FilterRequest is the period selection shared by every data endpoint and
// the dashboard form.
type FilterRequest struct {
	Period string `query:"period" validate:"omitempty,oneof=last_month last_3_months last_6_months last_year current_year all explicit"`
	Start  string `query:"start" validate:"isodate"`
	End    string `query:"end" validate:"isodate"`
}

// NewFilterRequest reads the filter parameters from the query string.
func NewFilterRequest(r *http.Request) FilterRequest {
	q := r.URL.Query()
	return FilterRequest{
		Period: q.Get("period"),
		Start:  q.Get("start"),
		End:    q.Get("end"),
	}
}

// ParseFilter validates the request's filter parameters and builds the query.
func ParseFilter(r *http.Request, v *middleware.Validator) (period.Query, error) {
	req := NewFilterRequest(r)
	if err := v.Struct(req); err != nil {
		return period.Query{}, err
	}
	return services.ParseQuery(req.Period, req.Start, req.End)
}

func withQuery(ctx context.Context, q period.Query) context.Context {
	return context.WithValue(ctx, filterKey{}, q)
}
