package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// MaxBodyBytes caps JSON request bodies read by Parse.
const MaxBodyBytes = 1 << 20

// FieldError reports a path or query value that does not fit its field.
type FieldError struct {
	Source string // "path" or "query"
	Name   string
	Value  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s parameter %s=%q", e.Source, e.Name, e.Value)
}

// Parse fills v, a pointer to a struct, from the request:
//   - `path:"name"` fields from chi URL parameters
//   - `form:"name"` fields from the query string
//   - everything else from a JSON body, when one is sent
func Parse(r *http.Request, v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return nil
	}
	val = val.Elem()
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}
		sf := typ.Field(i)

		if name := sf.Tag.Get("path"); name != "" {
			if raw := chi.URLParam(r, name); raw != "" {
				if !setField(field, raw) {
					return &FieldError{Source: "path", Name: name, Value: raw}
				}
			}
		}
		if name := sf.Tag.Get("form"); name != "" {
			if raw := r.URL.Query().Get(name); raw != "" {
				if !setField(field, raw) {
					return &FieldError{Source: "query", Name: name, Value: raw}
				}
			}
		}
	}

	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// setField converts raw into field's kind. It reports false when raw
// does not parse.
func setField(field reflect.Value, raw string) bool {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return false
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return false
		}
		field.SetUint(u)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return false
		}
		field.SetBool(b)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return false
		}
		field.SetFloat(f)
	default:
		return false
	}
	return true
}

// PathVar returns a chi URL parameter.
func PathVar(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// QueryString returns a query parameter, or def when it is absent.
func QueryString(r *http.Request, name, def string) string {
	if val := r.URL.Query().Get(name); val != "" {
		return val
	}
	return def
}

// OkJSON writes v with 200 OK.
func OkJSON(w http.ResponseWriter, v any) {
	WriteJSON(w, http.StatusOK, v)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error replies 400 with err's message.
func Error(w http.ResponseWriter, err error) {
	ErrorWithCode(w, http.StatusBadRequest, err.Error())
}

// ErrorWithCode replies with code and message.
func ErrorWithCode(w http.ResponseWriter, code int, message string) {
	if message == "" {
		message = strings.ToLower(http.StatusText(code))
	}
	WriteJSON(w, code, ErrorResponse{Code: code, Message: message})
}

func NotFound(w http.ResponseWriter, message string) {
	ErrorWithCode(w, http.StatusNotFound, message)
}

func Conflict(w http.ResponseWriter, message string) {
	ErrorWithCode(w, http.StatusConflict, message)
}

func InternalError(w http.ResponseWriter, message string) {
	ErrorWithCode(w, http.StatusInternalServerError, message)
}
