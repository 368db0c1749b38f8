package decimate

import (
	"fmt"
	"math"
	"strings"
)

// Chain is an ordered cascade of decimation stages for streaming input.
//
// Each stage buffers the input samples that do not yet complete a group of
// its factor, so input may be split arbitrarily across Process calls.
type Chain struct {
	stages  []*Stage
	factor  int
	scratch [][]float64
	out     []float64
}

// NewChain builds a cascade in processing order. The stages' chunk lengths
// are ignored; the chain accepts input of any length. NewChain takes
// ownership of the stages.
func NewChain(stages ...*Stage) (*Chain, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyChain
	}

	c := &Chain{
		stages:  make([]*Stage, len(stages)),
		factor:  1,
		scratch: make([][]float64, len(stages)),
	}

	for i, s := range stages {
		if s == nil {
			return nil, fmt.Errorf("decimate: stage %d is nil", i)
		}
		c.stages[i] = s
		c.factor *= s.factor
	}

	return c, nil
}

// Len returns the number of stages.
func (c *Chain) Len() int { return len(c.stages) }

// Stage returns stage i.
func (c *Chain) Stage(i int) *Stage { return c.stages[i] }

// Factor returns the product of all stage factors.
func (c *Chain) Factor() int { return c.factor }

// ChunkLen returns 0: a chain accepts any multiple of its factor.
func (c *Chain) ChunkLen() int { return 0 }

// Pending returns the number of carried samples per stage.
func (c *Chain) Pending() []int {
	out := make([]int, len(c.stages))
	for i, s := range c.stages {
		out[i] = len(s.carry)
	}
	return out
}

// Process consumes as much of in as needed to produce up to maxOut output
// samples and returns the output together with the number of input samples
// consumed. A negative maxOut consumes all of in. The output slice is owned
// by the chain and is overwritten by the next call.
func (c *Chain) Process(in []float64, maxOut int) (out []float64, consumed int) {
	consumed = len(in)
	if maxOut >= 0 {
		if need := c.inputFor(maxOut); need < consumed {
			consumed = need
		}
	}

	buf := in[:consumed]
	last := len(c.stages) - 1
	for i, s := range c.stages {
		if i == last {
			c.out = s.push(c.out[:0], buf)
			break
		}
		c.scratch[i] = s.push(c.scratch[i][:0], buf)
		buf = c.scratch[i]
	}

	return c.out, consumed
}

// inputFor returns the number of new input samples needed to produce n
// output samples given the currently carried samples.
func (c *Chain) inputFor(n int) int {
	need := n
	for i := len(c.stages) - 1; i >= 0; i-- {
		s := c.stages[i]
		if need > math.MaxInt/s.factor {
			return math.MaxInt
		}
		need = need*s.factor - len(s.carry)
		if need < 0 {
			need = 0
		}
	}
	return need
}

// Decimate processes raw in full. raw must be a multiple of Factor(); with
// no carried input the output holds exactly len(raw)/Factor() samples.
func (c *Chain) Decimate(raw []float64) ([]float64, error) {
	if len(raw)%c.factor != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a multiple of factor %d", ErrChunkLength, len(raw), c.factor)
	}

	out, _ := c.Process(raw, -1)
	return out, nil
}

// Reset zeroes every stage's delay line and carry buffer.
func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}

// Clone returns an independent chain with copied state and shared designs.
func (c *Chain) Clone() Path {
	n := &Chain{
		stages:  make([]*Stage, len(c.stages)),
		factor:  c.factor,
		scratch: make([][]float64, len(c.stages)),
	}
	for i, s := range c.stages {
		n.stages[i] = s.clone()
	}
	return n
}

// String lists the stages, e.g. "10x lowpass(order 2) -> 5x lowpass(order 2)".
func (c *Chain) String() string {
	parts := make([]string, len(c.stages))
	for i, s := range c.stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}
