package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"ai-docpilot-be/pkg/llm"
	"ai-docpilot-be/pkg/suggestion"
	"ai-docpilot-be/pkg/toolstream"
)

// Pass describes one analysis run: the assembled prompt history plus the
// agent label stamped on everything the run produces.
type Pass struct {
	Agent   string
	History []llm.Message
}

// Discard records a tool call the pipeline could not use, with the raw
// call attached so the run report can show what the model actually sent.
type Discard struct {
	Call   toolstream.Call
	Reason string
}

// Batch is the outcome of one analysis pass, before merging. Suggestions
// carry ids, timestamps and the agent label; diagrams are pending
// insertions in model order.
type Batch struct {
	Suggestions []suggestion.Suggestion
	Diagrams    []suggestion.DiagramInsertion
	Discarded   []Discard
	Repaired    int
}

// Engine drives one LLM tool-call stream into a normalized Batch. It is
// stateless across runs; every Analyze call takes a fresh aggregator.
type Engine struct {
	provider llm.ToolCapableProvider
	logger   *log.Logger
}

func NewEngine(provider llm.ToolCapableProvider, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{provider: provider, logger: logger}
}

// Analyze streams the model's tool calls, reassembles them, salvages
// truncated argument payloads where possible and shapes the rest into
// suggestions and diagram insertions. A stream that breaks mid-way
// returns an error and nothing else: partially aggregated calls are
// discarded, never surfaced.
func (e *Engine) Analyze(ctx context.Context, pass Pass, opts ...llm.Option) (*Batch, error) {
	agg := toolstream.NewAggregator()
	err := e.provider.StreamToolCalls(ctx, pass.History, Tools(), func(f toolstream.Fragment) error {
		return agg.Feed(f)
	}, opts...)
	if err != nil {
		agg.Abort()
		e.logger.Printf("[ANALYZE] agent=%s stream dropped, partial calls discarded: %v", pass.Agent, err)
		return nil, fmt.Errorf("analysis stream: %w", err)
	}

	calls, corrupt, err := agg.Finalize()
	if err != nil {
		return nil, err
	}

	batch := &Batch{}
	for _, c := range corrupt {
		repaired := toolstream.Repair(c.Call.ArgumentsRaw)
		if !json.Valid([]byte(repaired)) {
			e.logger.Printf("[ANALYZE] call %d (%s) not salvageable: %v", c.Call.Index, c.Call.Name, c.Err)
			batch.Discarded = append(batch.Discarded, Discard{
				Call:   c.Call,
				Reason: "arguments are not valid JSON even after repair",
			})
			continue
		}
		e.logger.Printf("[ANALYZE] repaired truncated call %d (%s)", c.Call.Index, c.Call.Name)
		c.Call.ArgumentsRaw = repaired
		calls = append(calls, c.Call)
		batch.Repaired++
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].Index < calls[j].Index })

	now := time.Now()
	for _, call := range calls {
		n := suggestion.Normalize(call)
		switch n.Kind {
		case suggestion.KindSuggestion:
			s := *n.Suggestion
			if s.Id == "" {
				s.Id = uuid.NewString()
			}
			s.Agent = pass.Agent
			s.CreatedAt = now
			batch.Suggestions = append(batch.Suggestions, s)
		case suggestion.KindDiagram:
			batch.Diagrams = append(batch.Diagrams, *n.Diagram)
		default:
			e.logger.Printf("[ANALYZE] dropped call %d (%s): %s", call.Index, call.Name, n.Reason)
			batch.Discarded = append(batch.Discarded, Discard{Call: call, Reason: n.Reason})
		}
	}

	e.logger.Printf("[ANALYZE] agent=%s calls=%d suggestions=%d diagrams=%d discarded=%d repaired=%d",
		pass.Agent, len(calls), len(batch.Suggestions), len(batch.Diagrams), len(batch.Discarded), batch.Repaired)
	return batch, nil
}
