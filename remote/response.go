package remote

import (
	"encoding/base64"
	"encoding/json"
)

// Response type tags.
const (
	RespPong           = "PONG"
	RespSystem         = "SYSTEM_RESPONSE"
	RespPreferredCores = "PREFERRED_CORES_RESPONSE"
	RespHash           = "HASH_RESPONSE"
	RespGuard          = "GUARD_RESPONSE"
	RespLocked         = "LOCKED"
	RespUnlocked       = "UNLOCKED"
	RespRead           = "READ_RESPONSE"
	RespWrite          = "WRITE_RESPONSE"
	RespError          = "ERROR"
)

// Response is one element of a JSON reply line. Which fields appear on
// the wire depends on the tag; MarshalJSON picks them, since GUARD's
// boolean value must serialize even when false.
type Response struct {
	Type    string
	Str     string
	Bool    bool
	Bytes   []byte
	Address uint64
	Err     string
}

func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case RespSystem, RespHash:
		return json.Marshal(struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}{r.Type, r.Str})
	case RespGuard:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Value   bool   `json:"value"`
			Address uint64 `json:"address"`
		}{r.Type, r.Bool, r.Address})
	case RespRead:
		return json.Marshal(struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}{r.Type, base64.StdEncoding.EncodeToString(r.Bytes)})
	case RespError:
		return json.Marshal(struct {
			Type string `json:"type"`
			Err  string `json:"err"`
		}{r.Type, r.Err})
	default:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{r.Type})
	}
}

func pong() Response { return Response{Type: RespPong} }

func systemResponse(id string) Response { return Response{Type: RespSystem, Str: id} }

func hashResponse(hash string) Response { return Response{Type: RespHash, Str: hash} }

func guardResponse(matched bool, address uint64) Response {
	return Response{Type: RespGuard, Bool: matched, Address: address}
}

func readResponse(data []byte) Response { return Response{Type: RespRead, Bytes: data} }

func writeResponse() Response { return Response{Type: RespWrite} }

func errorResponse(msg string) Response { return Response{Type: RespError, Err: msg} }
