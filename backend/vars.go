package backend

import (
	"context"
	"net/http"
	"strings"
)

// VariableHeaderPrefix is the reserved prefix marking response headers whose
// values the backend wants republished into the caller's request context.
const VariableHeaderPrefix = "x-v."

// VariableSink receives variables extracted from backend response headers.
// A surrounding gateway can use this to thread backend-derived values
// (e.g. token metadata) back into request-scoped state.
type VariableSink interface {
	SetVariable(name, value string)
}

// Variables is a ready-made map-backed VariableSink.
type Variables map[string]string

// SetVariable implements VariableSink
func (v Variables) SetVariable(name, value string) {
	v[name] = value
}

type variableSinkKey struct{}

// WithVariableSink returns a context carrying the sink. Operations invoked
// with the returned context publish prefixed response headers into it.
func WithVariableSink(ctx context.Context, sink VariableSink) context.Context {
	return context.WithValue(ctx, variableSinkKey{}, sink)
}

func variableSinkFrom(ctx context.Context) VariableSink {
	sink, _ := ctx.Value(variableSinkKey{}).(VariableSink)
	return sink
}

// publishVariables republishes every response header carrying the reserved
// prefix, minus the prefix, into the context's sink. Headers with empty
// values are skipped. No-op when no sink was supplied. The variable name's
// letter case follows the header name as delivered by the transport.
func publishVariables(ctx context.Context, header http.Header) {
	sink := variableSinkFrom(ctx)
	if sink == nil {
		return
	}

	for name, values := range header {
		if len(name) <= len(VariableHeaderPrefix) {
			continue
		}
		if !strings.EqualFold(name[:len(VariableHeaderPrefix)], VariableHeaderPrefix) {
			continue
		}
		if len(values) == 0 || values[0] == "" {
			continue
		}
		sink.SetVariable(name[len(VariableHeaderPrefix):], values[0])
	}
}
