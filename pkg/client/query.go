package client

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Event names the node emits itself, as opposed to names emitted by
// deployed contracts.
const (
	SystemEventTx             = "Tx"
	SystemEventNewBlock       = "NewBlock"
	SystemEventNewBlockHeader = "NewBlockHeader"
)

// IsSystemEvent reports whether name is a node-level event name.
func IsSystemEvent(name string) bool {
	switch name {
	case SystemEventTx, SystemEventNewBlock, SystemEventNewBlockHeader:
		return true
	}
	return false
}

// Attribute keys understood by the node's query language.
const (
	queryKeySystemTag  = "node.event"
	queryKeyEventIndex = "tx.events"
	queryKeyHeight     = "tx.height"
)

// Condition keys with dedicated translations. Everything else becomes an
// exact-match clause.
const (
	condKeyFromBlock = "fromBlock"
	condKeyToBlock   = "toBlock"
)

// EventFilter narrows which events a query selects. It is a sealed
// union: RawQuery or Conditions. A nil filter selects everything.
type EventFilter interface {
	eventFilter()
}

// RawQuery is a complete query string in the node's own language,
// passed through verbatim.
type RawQuery string

func (RawQuery) eventFilter() {}

// Conditions is a structured filter. Each entry becomes one clause and
// clauses are combined conjunctively; the language has no OR. The keys
// fromBlock and toBlock bound the block height inclusively; any other
// key requires an exact attribute match.
type Conditions map[string]any

func (Conditions) eventFilter() {}

// RoutingState is the per-client subscribe counter. The node registers
// live subscriptions by query content and silently coalesces duplicates,
// so every application-event subscription must produce a query string the
// node has not seen from this connection. The counter pads each query
// with a strictly growing run of whitespace, which the query language
// ignores but the node's duplicate check does not.
type RoutingState struct {
	mu           sync.Mutex
	subscribeSeq int
}

func (s *RoutingState) nextPadding() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribeSeq++
	return strings.Repeat(" ", s.subscribeSeq)
}

// BuildSearchQuery builds the query for a historical event search. The
// seed clause matches the transaction's event index: every event is
// recorded there as `<emitter>.<name>|`, so the containment token pins
// the name (and optionally the emitter) without matching name prefixes.
// A RawQuery filter replaces the whole query.
func BuildSearchQuery(eventName, emitter string, filter EventFilter) string {
	if raw, ok := filter.(RawQuery); ok {
		return string(raw)
	}

	scope := "."
	if emitter != "" {
		scope = "|" + emitter + "."
	}
	clauses := []string{fmt.Sprintf("%s CONTAINS '%s%s|'", queryKeyEventIndex, scope, eventName)}
	clauses = append(clauses, conditionClauses(filter)...)
	return strings.Join(clauses, " AND ")
}

// BuildSubscribeQuery builds the query for a live subscription. System
// event names are matched directly against the node's event tag.
// Application events cannot be matched server-side, so the query
// subscribes to every transaction and the router filters client-side;
// state disambiguates those otherwise-identical queries via whitespace
// padding. Each call advances the counter. A RawQuery filter replaces
// the whole query (and is then the caller's job to keep unique).
func BuildSubscribeQuery(state *RoutingState, eventName string, filter EventFilter) string {
	if raw, ok := filter.(RawQuery); ok {
		return string(raw)
	}

	tag := eventName
	pad := ""
	if !IsSystemEvent(eventName) {
		tag = SystemEventTx
		pad = state.nextPadding()
	}
	clauses := []string{fmt.Sprintf("%s = %s'%s'", queryKeySystemTag, pad, tag)}
	clauses = append(clauses, conditionClauses(filter)...)
	return strings.Join(clauses, " AND ")
}

// conditionClauses translates Conditions into clause strings in a
// deterministic order: height bounds first, then the remaining keys
// sorted. The height bounds are inclusive, expressed through the
// language's strict comparators.
func conditionClauses(filter EventFilter) []string {
	cond, ok := filter.(Conditions)
	if !ok || len(cond) == 0 {
		return nil
	}

	var clauses []string
	if v, ok := cond[condKeyFromBlock]; ok {
		clauses = append(clauses, fmt.Sprintf("%s > %d", queryKeyHeight, asInt64(v)-1))
	}
	if v, ok := cond[condKeyToBlock]; ok {
		clauses = append(clauses, fmt.Sprintf("%s < %d", queryKeyHeight, asInt64(v)+1))
	}

	keys := make([]string, 0, len(cond))
	for k := range cond {
		if k == condKeyFromBlock || k == condKeyToBlock {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		clauses = append(clauses, fmt.Sprintf("%s = %s", k, formatQueryValue(cond[k])))
	}
	return clauses
}

// formatQueryValue renders a condition value for the query language:
// strings single-quoted, everything else in its natural form.
func formatQueryValue(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + val + "'"
	case fmt.Stringer:
		return "'" + val.String() + "'"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return int64(n)
	case float64:
		// Heights decoded from JSON arrive as float64.
		return int64(n)
	case string:
		// Heights from config files often arrive as strings.
		if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
			return parsed
		}
	}
	// Anything else, including unparsable strings, is treated as 0;
	// the resulting bound is visible in the built query.
	return 0
}
