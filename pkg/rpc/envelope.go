package rpc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Version is the protocol version carried in every envelope.
const Version = "2.0"

// Method identifies a node RPC method.
type Method string

// String returns the wire name of the method.
func (m Method) String() string { return string(m) }

// Methods exposed by a Meridian node.
const (
	MethodSubscribe            Method = "subscribe"
	MethodUnsubscribe          Method = "unsubscribe"
	MethodPing                 Method = "ping"
	MethodAuth                 Method = "auth"
	MethodGetBlock             Method = "get_block"
	MethodGetTransaction       Method = "get_transaction"
	MethodGetBalance           Method = "get_balance"
	MethodSearchEvents         Method = "search_events"
	MethodQueryContract        Method = "query_contract"
	MethodBroadcastTransaction Method = "broadcast_transaction"
)

// Params holds a method's named parameters as raw JSON values.
type Params map[string]json.RawMessage

// NewParams builds Params from any JSON-object-marshalable value,
// typically a request struct.
func NewParams(v any) (Params, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("params must encode to a JSON object: %w", err)
	}
	return p, nil
}

// Translate unmarshals the parameters into dst.
func (p Params) Translate(dst any) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to translate params: %w", err)
	}
	return nil
}

// Request is a client-to-node call envelope.
type Request struct {
	Version string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  Method `json:"method"`
	Params  Params `json:"params,omitempty"`
}

// NewRequest creates a request envelope with the protocol version set.
func NewRequest(id uint64, method Method, params Params) Request {
	return Request{
		Version: Version,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// Error is a node-reported call failure.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Response is a node-to-client envelope, either the reply to a call or a
// server-initiated push notification.
type Response struct {
	Version string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Err returns the node-reported error, or nil for a successful response.
func (r *Response) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// DecodeResult unmarshals the result payload into dst, surfacing a
// node-reported error first.
func (r *Response) DecodeResult(dst any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(r.Result) == 0 {
		return fmt.Errorf("response %s carries no result", r.ID)
	}
	if err := json.Unmarshal(r.Result, dst); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// ID is a dual-typed message identifier. Replies to client calls carry the
// numeric ID the client assigned; push notifications carry server-composed
// string IDs. The zero value is the number 0.
type ID struct {
	num   uint64
	str   string
	isStr bool
}

// NewNumberID creates a numeric message ID.
func NewNumberID(n uint64) ID { return ID{num: n} }

// NewStringID creates a string message ID.
func NewStringID(s string) ID { return ID{str: s, isStr: true} }

// IsString reports whether the ID is server-composed (a string).
func (id ID) IsString() bool { return id.isStr }

// Uint64 returns the numeric value of the ID, false for string IDs.
func (id ID) Uint64() (uint64, bool) {
	if id.isStr {
		return 0, false
	}
	return id.num, true
}

// String returns the string value of a string ID, or the decimal
// rendering of a numeric one.
func (id ID) String() string {
	if id.isStr {
		return id.str
	}
	return strconv.FormatUint(id.num, 10)
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isStr {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	var num uint64
	if err := json.Unmarshal(data, &num); err == nil {
		*id = ID{num: num}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*id = ID{str: str, isStr: true}
		return nil
	}
	return fmt.Errorf("invalid message id: %s", string(data))
}
