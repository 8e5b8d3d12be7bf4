package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
)

const (
	codeExclusionViolation = "23P01"
	codeUniqueViolation    = "23505"
	codeSerialization      = "40001"
	codeQueryCanceled      = "57014"
)

// IsExclusionViolation reports whether err comes from an EXCLUDE constraint.
func IsExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeExclusionViolation
}

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

// IsUnavailable reports whether err means the database could not be reached
// or did not answer in time, as opposed to rejecting the statement.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 is connection exception, class 53 insufficient resources.
		class := string(pqErr.Code.Class())
		return class == "08" || class == "53" || pqErr.Code == codeQueryCanceled || pqErr.Code == codeSerialization
	}
	return false
}
