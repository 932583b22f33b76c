package shop

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// request payloads larger than this are rejected
const maxBodySize = 1 << 20

// readValidBody reads the request body and validates its shape against
// schemaID. On failure it writes the error response and returns false.
func (b *Backend) readValidBody(w http.ResponseWriter, r *http.Request, schemaID string) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return nil, false
	}
	if err := b.validator.ValidateString(string(body), schemaID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return body, true
}

// idFromRequest returns the numeric route variable key. The routes restrict
// id variables to digits, hence parsing cannot fail for matched requests.
func idFromRequest(r *http.Request, key string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[key], 10, 64)
	return id
}
