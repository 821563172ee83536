// Package keygen runs a background pump that keeps a small queue of
// freshly generated candidate key pairs ready per slot, so GENERATE
// ASYMMETRIC KEY PAIR can hand one back without making the command's
// caller wait on RSA modulus generation. It mirrors the reference
// implementation's bounded candidate-queue-plus-worker design, built
// here on one goroutine and one buffered channel per slot instead of a
// thread pool and an explicit semaphore object.
package keygen

import (
	"context"
	"crypto/rand"
	"sync"

	"github.com/marmos91/openpgpcard/internal/algo"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/pkg/metrics/prometheus"
)

// queueDepth bounds how many ready candidates the pump keeps per slot.
// The reference implementation's queue defaults to a depth of one;
// keeping a second in flight absorbs a GENERATE immediately followed
// by another before the pump has refilled.
const queueDepth = 2

// candidate pairs a generated key with the algorithm that produced it,
// since GenerateAsymmetricKeyPair needs both.
type candidate struct {
	key algo.PrivateKey
	alg algo.Algorithm
}

// Pump generates candidate key pairs for each slot in the background,
// one worker goroutine per slot, refilling a bounded channel as
// Take drains it. Pump never blocks the APDU dispatch path: Take
// either returns a ready candidate immediately or reports that none is
// available yet, falling back to synchronous generation.
type Pump struct {
	metrics *prometheus.KeyGenMetrics

	mu      sync.Mutex
	queues  map[store.SlotIndex]chan candidate
	current map[store.SlotIndex]algo.Algorithm
	cancel  map[store.SlotIndex]context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Pump. Call Configure for each slot once its algorithm
// attributes are known (at startup, and whenever PUT DATA changes
// them), and Stop when the application shuts down.
func New(m *prometheus.KeyGenMetrics) *Pump {
	return &Pump{
		metrics: m,
		queues:  make(map[store.SlotIndex]chan candidate),
		current: make(map[store.SlotIndex]algo.Algorithm),
		cancel:  make(map[store.SlotIndex]context.CancelFunc),
	}
}

// Configure (re)starts the worker generating candidates for slot using
// alg. Any in-flight worker and queued candidates for a different
// algorithm are discarded, since a stale candidate generated under the
// previous Algorithm Attributes would be unusable.
func (p *Pump) Configure(ctx context.Context, slot store.SlotIndex, alg algo.Algorithm) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cancel, ok := p.cancel[slot]; ok {
		cancel()
	}

	queue := make(chan candidate, queueDepth)
	workerCtx, cancel := context.WithCancel(ctx)
	p.queues[slot] = queue
	p.current[slot] = alg
	p.cancel[slot] = cancel

	p.wg.Add(1)
	go p.run(workerCtx, slot, alg, queue)
}

// Take returns a ready candidate for slot generated under alg, if one
// is queued. It returns ok=false if the pump has nothing ready yet (the
// caller should generate synchronously) or if alg no longer matches
// the slot's configured algorithm (attributes changed after the
// candidate was queued).
func (p *Pump) Take(slot store.SlotIndex, alg algo.Algorithm) (algo.PrivateKey, bool) {
	p.mu.Lock()
	queue := p.queues[slot]
	p.mu.Unlock()
	if queue == nil {
		return nil, false
	}
	select {
	case c := <-queue:
		if !sameAttributes(c.alg, alg) {
			return nil, false
		}
		if p.metrics != nil {
			p.metrics.SetQueueDepth(slot.String(), len(queue))
		}
		return c.key, true
	default:
		return nil, false
	}
}

// Stop cancels every worker and waits for them to exit.
func (p *Pump) Stop() {
	p.mu.Lock()
	for _, cancel := range p.cancel {
		cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pump) run(ctx context.Context, slot store.SlotIndex, alg algo.Algorithm, queue chan candidate) {
	defer p.wg.Done()
	for {
		key, err := alg.GenerateKey(rand.Reader)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}
		select {
		case queue <- candidate{key: key, alg: alg}:
			if p.metrics != nil {
				p.metrics.SetQueueDepth(slot.String(), len(queue))
			}
		case <-ctx.Done():
			return
		}
	}
}

func sameAttributes(a, b algo.Algorithm) bool {
	if a == nil || b == nil {
		return false
	}
	aEnc, bEnc := a.EncodeAttributes(), b.EncodeAttributes()
	if len(aEnc) != len(bEnc) {
		return false
	}
	for i := range aEnc {
		if aEnc[i] != bEnc[i] {
			return false
		}
	}
	return true
}
