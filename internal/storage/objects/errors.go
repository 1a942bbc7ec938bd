package objects

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// isPreconditionFailed reports a lost DoesNotExist race: another writer created the object first.
func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error

	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
