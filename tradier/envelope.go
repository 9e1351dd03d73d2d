package tradier

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Timestamp is a point in time Tradier encodes as epoch milliseconds.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "timestamp %s", s)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

// Date is a calendar day such as an option expiration, "2006-01-02".
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return errors.Wrapf(err, "date %s", s)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// isNullish reports Tradier's ways of saying "nothing here": an absent
// value, JSON null, and the literal string "null".
func isNullish(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || string(t) == "null" || string(t) == `"null"`
}

// unwrapList decodes a Tradier collection. Tradier wraps lists as
// {"<outer>": {"<inner>": X}} where X is an object when there is one
// element and an array otherwise; an empty collection is "null".
func unwrapList[T any](raw json.RawMessage, inner string) ([]T, error) {
	if isNullish(raw) {
		return []T{}, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, errors.Wrap(err, "collection wrapper")
	}
	items, ok := wrapper[inner]
	if !ok {
		return nil, errors.Errorf("collection is missing %q key", inner)
	}
	return oneOrMany[T](items)
}

// oneOrMany decodes a value that is either a single T or a []T.
func oneOrMany[T any](raw json.RawMessage) ([]T, error) {
	t := bytes.TrimSpace(raw)
	if isNullish(t) {
		return []T{}, nil
	}
	if t[0] == '[' {
		var many []T
		if err := json.Unmarshal(t, &many); err != nil {
			return nil, err
		}
		return many, nil
	}
	var one T
	if err := json.Unmarshal(t, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}

// errorEnvelope is the body Tradier sends, sometimes with a 200, when it
// rejects an operation it otherwise accepted.
type errorEnvelope struct {
	Errors json.RawMessage `json:"errors"`
}

type errorList struct {
	Error json.RawMessage `json:"error"`
}

// envelopeErrors returns the messages of an {"errors":{"error":...}} body,
// or nil when body is something else.
func envelopeErrors(body []byte) []string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || isNullish(env.Errors) {
		return nil
	}
	var list errorList
	if err := json.Unmarshal(env.Errors, &list); err != nil {
		return nil
	}
	msgs, err := oneOrMany[string](list.Error)
	if err != nil || len(msgs) == 0 {
		return nil
	}
	return msgs
}

type clientErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: string(body)}
	if msgs := envelopeErrors(body); msgs != nil {
		e.Errors = msgs
		return e
	}
	var ce clientErrorBody
	if err := json.Unmarshal(body, &ce); err == nil && ce.Message != "" {
		e.Code = ce.Code
		e.Message = ce.Message
	}
	return e
}

// validator is implemented by every decoded domain object.
type validator interface {
	validate() error
}

// decode turns a 2xx body into out. Bodies that are not JSON, that carry
// Tradier's error envelope, or that fail out's schema never yield a
// partially populated value.
func decode(typ string, body []byte, out validator) error {
	if !json.Valid(body) {
		return &ValidationError{Type: typ, Reason: "response is not valid JSON", Body: string(body)}
	}
	if msgs := envelopeErrors(body); msgs != nil {
		return &APIError{StatusCode: 200, Body: string(body), Errors: msgs}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ValidationError{Type: typ, Reason: "response does not match schema", Body: string(body), Err: err}
	}
	if err := out.validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			if ve.Body == "" {
				ve.Body = string(body)
			}
			return ve
		}
		return &ValidationError{Type: typ, Reason: "invalid response", Body: string(body), Err: err}
	}
	return nil
}
