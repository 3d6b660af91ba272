package client

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Event is one application-level event emitted during transaction
// execution.
type Event struct {
	Name    string         `json:"event_name"`
	Emitter string         `json:"emitter"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// TxResult is the payload of a transaction push message or a historical
// search hit. EventData carries the transaction's event log as a
// base64-encoded JSON array.
type TxResult struct {
	Height    int64  `json:"height"`
	TxHash    string `json:"tx_hash"`
	EventData string `json:"event_data,omitempty"`
}

// EventNotification is the reshaped result delivered to application
// subscriptions: the matching event plus the query string that selected
// it.
type EventNotification struct {
	Event
	Query string `json:"query"`
}

// DecodeEventData extracts the events from a transaction payload. An
// absent or empty event log decodes to no events without error.
func DecodeEventData(result json.RawMessage) ([]Event, error) {
	var txr TxResult
	if err := json.Unmarshal(result, &txr); err != nil {
		return nil, errors.Wrap(err, "malformed transaction payload")
	}
	if txr.EventData == "" {
		return nil, nil
	}

	eventLog, err := SwitchEncoding(txr.EventData, EncodingBase64, EncodingUTF8)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode event log")
	}

	var events []Event
	if err := json.Unmarshal([]byte(eventLog), &events); err != nil {
		return nil, errors.Wrap(err, "malformed event log")
	}
	return events, nil
}

// Encoding names a text encoding understood by SwitchEncoding.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf8"
	EncodingBase64 Encoding = "base64"
	EncodingHex    Encoding = "hex"
)

// SwitchEncoding transcodes data between utf8, base64, and hex. Hex
// input may carry a 0x prefix; hex output never does.
func SwitchEncoding(data string, from, to Encoding) (string, error) {
	if from == to {
		return data, nil
	}

	var raw []byte
	switch from {
	case EncodingUTF8:
		raw = []byte(data)
	case EncodingBase64:
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return "", errors.Wrap(err, "invalid base64 input")
		}
		raw = decoded
	case EncodingHex:
		decoded, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
		if err != nil {
			return "", errors.Wrap(err, "invalid hex input")
		}
		raw = decoded
	default:
		return "", errors.Errorf("unknown source encoding %q", from)
	}

	switch to {
	case EncodingUTF8:
		return string(raw), nil
	case EncodingBase64:
		return base64.StdEncoding.EncodeToString(raw), nil
	case EncodingHex:
		return hex.EncodeToString(raw), nil
	}
	return "", errors.Errorf("unknown target encoding %q", to)
}
