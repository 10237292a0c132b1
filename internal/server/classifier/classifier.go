// Package classifier assigns a risk label to uploaded content.
//
// Engine is deliberately a single method so a real scanner can replace the
// random reference implementation without touching the intake service.
// Callers must not assume an engine is deterministic.
package classifier

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/dmitrijs2005/threatscope/internal/server/models"
)

// Engine returns one label from models.AllRisks for the given content.
type Engine interface {
	Classify(ctx context.Context, content []byte, filename string) (models.Risk, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, content []byte, filename string) (models.Risk, error)

func (f EngineFunc) Classify(ctx context.Context, content []byte, filename string) (models.Risk, error) {
	return f(ctx, content, filename)
}

// Random picks a label uniformly at random.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a Random engine drawing from src. A nil src uses a
// randomly seeded PCG.
func NewRandom(src rand.Source) *Random {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Random{rng: rand.New(src)}
}

func (r *Random) Classify(ctx context.Context, content []byte, filename string) (models.Risk, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	i := r.rng.IntN(len(models.AllRisks))
	r.mu.Unlock()
	return models.AllRisks[i], nil
}

// ErrEmptySequence is returned by a Sequence built without labels.
var ErrEmptySequence = errors.New("classifier: empty sequence")

// Sequence returns its labels in order, wrapping around. It is the
// deterministic stand-in used in tests.
type Sequence struct {
	mu     sync.Mutex
	labels []models.Risk
	next   int
}

func NewSequence(labels ...models.Risk) *Sequence {
	return &Sequence{labels: labels}
}

func (s *Sequence) Classify(ctx context.Context, content []byte, filename string) (models.Risk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.labels) == 0 {
		return "", ErrEmptySequence
	}
	r := s.labels[s.next%len(s.labels)]
	s.next++
	return r, nil
}
