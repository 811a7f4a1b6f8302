package internal

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	errNotFound   = statusErr(http.StatusNotFound)
	errBadRequest = statusErr(http.StatusBadRequest)

	errMissingTerms = errors.Join(fmt.Errorf(`missing "from" or "to"`), errBadRequest)
	errBadLanguage  = errors.Join(fmt.Errorf("unsupported language"), errBadRequest)
)

type statusErr int

var _ error = (*statusErr)(nil)

func (s statusErr) Status() int {
	return int(s)
}

func (s statusErr) Error() string {
	return fmt.Sprintf("HTTP %d", s)
}
