package prover

import (
	"errors"
	"fmt"
)

var ErrProver = errors.New("prover error")

// Each of these also matches ErrProver.
var (
	ErrNotConfigured = fmt.Errorf("%w: not configured", ErrProver)
	ErrSpawn         = fmt.Errorf("%w: spawn failed", ErrProver)
	ErrExit          = fmt.Errorf("%w: prover failed", ErrProver)
	ErrTimeout       = fmt.Errorf("%w: timed out", ErrProver)
	ErrOutput        = fmt.Errorf("%w: malformed output", ErrProver)
)
