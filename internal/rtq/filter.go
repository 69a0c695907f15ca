package rtq

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/cel-go/cel"
)

// ingressFilter wraps a compiled CEL program deciding whether a pushed
// mutation enters the queue at all. When disabled, Eval always returns true.
type ingressFilter struct {
	prog    cel.Program
	enabled bool
}

func newIngressFilter(expr string) (ingressFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ingressFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		// Expose parsed JSON payload (map/list/values) for field filtering
		cel.Variable("json", cel.DynType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return ingressFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return ingressFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return ingressFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return ingressFilter{}, err
	}
	return ingressFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against a payload. When disabled,
// returns true. Evaluation errors reject the payload.
func (f ingressFilter) Eval(payload []byte, tsMs int64) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	if len(payload) > 0 && (payload[0] == '{' || payload[0] == '[') {
		_ = json.Unmarshal(payload, &jsonObj)
	}
	text := ""
	if utf8.Valid(payload) {
		text = string(payload)
	}
	out, _, err := f.prog.Eval(map[string]any{
		"size":   len(payload),
		"text":   text,
		"json":   jsonObj,
		"ts_ms":  tsMs,
		"now_ms": time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
