package reliability

import "fmt"

// Engine computes reliability reports from mention snapshots. It is a pure
// function of its inputs plus Params: it performs no I/O, holds no mutable
// state, and is safe to use from concurrent requests.
type Engine struct {
	params Params
}

// NewEngine validates params and builds an engine. Invalid params are a fatal
// configuration error.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine params: %w", err)
	}
	return &Engine{params: params}, nil
}

// Params returns the engine's configuration.
func (e *Engine) Params() Params { return e.params }
