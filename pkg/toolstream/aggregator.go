package toolstream

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Fragment is one index-tagged piece of a tool call as the model streams
// it. Name travels on the first fragment of a call only; every later
// fragment for the same index carries just another slice of the
// arguments.
type Fragment struct {
	Index          int
	Name           string
	ArgumentsChunk string
}

// Call is a fully reassembled tool call. ArgumentsRaw is the byte-exact
// concatenation of the call's argument chunks in arrival order.
type Call struct {
	Index        int
	Name         string
	ArgumentsRaw string
}

// CorruptCall reports a call whose accumulated arguments never parsed as
// JSON. It is returned as a value, never raised mid-stream: the caller
// owns the raw payload and decides whether to repair, retry or drop.
type CorruptCall struct {
	Call Call
	Err  error
}

// ErrAggregatorDone is returned by Feed once the stream has been
// finalized or aborted. An aggregator serves exactly one stream.
var ErrAggregatorDone = fmt.Errorf("toolstream: aggregator already finished")

// Aggregator reassembles streamed fragments into complete calls. It is
// not safe for concurrent use; independent streams take independent
// instances.
type Aggregator struct {
	calls map[int]*Call
	done  bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		calls: make(map[int]*Call),
	}
}

// Feed consumes the next fragment. A new index opens a call; a known
// index appends the chunk. A fragment with no chunk contributes the
// empty string, and a fragment with no name for an unknown index opens
// the call anyway — the name is back-filled when it shows up later.
func (a *Aggregator) Feed(f Fragment) error {
	if a.done {
		return ErrAggregatorDone
	}

	call, ok := a.calls[f.Index]
	if !ok {
		call = &Call{Index: f.Index}
		a.calls[f.Index] = call
	}
	if f.Name != "" && call.Name == "" {
		call.Name = f.Name
	}
	call.ArgumentsRaw += f.ArgumentsChunk
	return nil
}

// Finalize ends the stream and returns the calls in ascending index
// order. Calls whose arguments are not valid JSON come back separately
// as CorruptCall values with the raw payload attached. The aggregator is
// dead afterwards.
func (a *Aggregator) Finalize() ([]Call, []CorruptCall, error) {
	if a.done {
		return nil, nil, ErrAggregatorDone
	}
	a.done = true

	indexes := make([]int, 0, len(a.calls))
	for idx := range a.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var calls []Call
	var corrupt []CorruptCall
	for _, idx := range indexes {
		call := *a.calls[idx]
		if !json.Valid([]byte(call.ArgumentsRaw)) {
			corrupt = append(corrupt, CorruptCall{
				Call: call,
				Err:  fmt.Errorf("toolstream: call %d (%s): arguments are not valid JSON", call.Index, call.Name),
			})
			continue
		}
		calls = append(calls, call)
	}
	a.calls = nil
	return calls, corrupt, nil
}

// Abort models a dropped stream: partially built calls are discarded and
// never emitted. The instance cannot be reused; a new stream needs a new
// aggregator.
func (a *Aggregator) Abort() {
	a.done = true
	a.calls = nil
}
