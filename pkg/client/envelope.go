package client

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// legacySuccessMessage is a login endpoint quirk: it reports success through
// the message text. Remove isLegacySuccessMessage once the backend sends code 0.
const legacySuccessMessage = "登录成功"

// Result is the outcome of parsing one response body
type Result struct {
	OK bool
	// Data is the envelope's data member when present, otherwise the raw body
	Data json.RawMessage
	// HasCode reports whether the body carried a code member
	HasCode bool
	Code    int
	Message string
}

type envelope struct {
	raw     json.RawMessage
	hasCode bool
	code    int
	msg     string
	data    json.RawMessage
}

// parseEnvelope interprets a 2xx body. Bodies that are not JSON objects are
// treated as bare payloads without a code.
func parseEnvelope(status int, body []byte) Result {
	env := decodeEnvelope(body)

	res := Result{
		HasCode: env.hasCode,
		Code:    env.code,
		Message: env.msg,
	}
	res.OK = hasSuccessCode(env) || isBareOK(status, env) || isLegacySuccessMessage(env)
	if !res.OK {
		return res
	}
	if env.data != nil {
		res.Data = env.data
	} else {
		res.Data = env.raw
	}
	return res
}

// hasSuccessCode: the envelope says code 0
func hasSuccessCode(env envelope) bool {
	return env.hasCode && env.code == 0
}

// isBareOK: HTTP 200 with a body that carries no code at all
func isBareOK(status int, env envelope) bool {
	return status == http.StatusOK && !env.hasCode
}

// isLegacySuccessMessage: see legacySuccessMessage
func isLegacySuccessMessage(env envelope) bool {
	return env.msg == legacySuccessMessage
}

func decodeEnvelope(body []byte) envelope {
	env := envelope{raw: json.RawMessage(bytes.TrimSpace(body))}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return env
	}

	if raw, ok := lookup(fields, "code", "Code"); ok {
		var code int
		if err := json.Unmarshal(raw, &code); err == nil {
			env.hasCode = true
			env.code = code
		}
	}
	if raw, ok := lookup(fields, "msg", "Msg"); ok {
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil {
			env.msg = msg
		}
	}
	if raw, ok := lookup(fields, "data", "Data"); ok && !isNull(raw) {
		env.data = raw
	}
	return env
}

// lookup returns the first of names present in fields
func lookup(fields map[string]json.RawMessage, names ...string) (json.RawMessage, bool) {
	for _, name := range names {
		if raw, ok := fields[name]; ok {
			return raw, true
		}
	}
	return nil, false
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// failureMessage picks the text shown for an envelope failure
func (r Result) failureMessage() string {
	if r.Message != "" {
		return r.Message
	}
	return msgRequestFailed
}

// decode unmarshals data into out. Empty and null payloads leave out untouched.
func decode(data json.RawMessage, out interface{}) error {
	if out == nil || isNull(data) {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	return json.Unmarshal(data, out)
}
