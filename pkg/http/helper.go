package http

import (
	"net/http"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"strconv"
	"time"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractTimeRange reads the optional RFC 3339 "from" and "to" query parameters.
func ExtractTimeRange(r *http.Request) (*time.Time, *time.Time, error) {
	query := r.URL.Query()

	parse := func(name string) (*time.Time, error) {
		s := query.Get(name)
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid " + name + " parameter, expected RFC 3339: " + s)
		}
		t = t.UTC()
		return &t, nil
	}

	from, err := parse("from")
	if err != nil {
		return nil, nil, err
	}
	to, err := parse("to")
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && !to.After(*from) {
		return nil, nil, apperrors.InvalidInput("to must be after from")
	}
	return from, to, nil
}
