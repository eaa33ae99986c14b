package internal

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	errNotFound   = statusErr(http.StatusNotFound)
	errBadRequest = statusErr(http.StatusBadRequest)

	// errCycle is returned when a move would make a node its own ancestor.
	errCycle = errors.Join(fmt.Errorf("node cannot become its own descendant"), errBadRequest)
)

// ErrNotFound can be used by callers outside this package to detect missing
// nodes.
var ErrNotFound error = errNotFound

type statusErr int

var _ error = (*statusErr)(nil)

func (s statusErr) Status() int {
	return int(s)
}

func (s statusErr) Error() string {
	return fmt.Sprintf("HTTP %d", s)
}

// notFound wraps errNotFound with the missing node's identity.
func notFound(kind Kind, id int64) error {
	return errors.Join(fmt.Errorf("%s %d not found", kind, id), errNotFound)
}
