// Package formutil reads request input for the JSON handlers: bodies are
// decoded with a size cap and unknown-type errors turned into 400s, and path
// ids are parsed as ObjectIDs before any lookup.
package formutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxBodyBytes caps a request body.
const MaxBodyBytes = 1 << 20

// DecodeJSON reads r's body into v. An empty body leaves v untouched.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apierr.Validation("Request body is too large")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			e := apierr.Validation("Invalid value for " + typeErr.Field)
			e.Fields = map[string]string{typeErr.Field: "has the wrong type"}
			return e
		}
		return apierr.Validation("Request body must be valid JSON")
	}
	return nil
}

// ObjectIDParam parses the chi URL parameter name as an ObjectID.
func ObjectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apierr.Validation("Invalid id")
	}
	return id, nil
}
