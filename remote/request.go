package remote

import (
	"encoding/base64"
	"encoding/json"

	"github.com/ape-emu/ape/errors"
)

// Request type tags.
const (
	ReqPing               = "PING"
	ReqSystem             = "SYSTEM"
	ReqPreferredCores     = "PREFERRED_CORES"
	ReqHash               = "HASH"
	ReqGuard              = "GUARD"
	ReqLock               = "LOCK"
	ReqUnlock             = "UNLOCK"
	ReqRead               = "READ"
	ReqWrite              = "WRITE"
	ReqDisplayMessage     = "DISPLAY_MESSAGE"
	ReqSetMessageInterval = "SET_MESSAGE_INTERVAL"
)

// Request is one element of a JSON batch line. The payload fields are a
// union across tags; Value stays raw because WRITE carries a base64
// string while SET_MESSAGE_INTERVAL carries a number.
type Request struct {
	Type         string          `json:"type"`
	Address      uint64          `json:"address"`
	Size         int             `json:"size"`
	Domain       string          `json:"domain"`
	ExpectedData string          `json:"expected_data"`
	Message      string          `json:"message"`
	Value        json.RawMessage `json:"value"`
}

// ExpectedBytes decodes the GUARD comparison payload.
func (r *Request) ExpectedBytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(r.ExpectedData)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseRemote, "expected_data is not valid base64")
	}
	return data, nil
}

// ValueBytes decodes the WRITE payload, a base64 value inside a JSON
// string.
func (r *Request) ValueBytes() ([]byte, error) {
	var s string
	if err := json.Unmarshal(r.Value, &s); err != nil {
		return nil, errors.InvalidInput(errors.PhaseRemote, "value is not a string")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseRemote, "value is not valid base64")
	}
	return data, nil
}
