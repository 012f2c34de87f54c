package service

import (
	"sync"

	"github.com/xxxsen/samplesearch/internal/encoder"
)

// EncoderFactory builds the (possibly cache-decorated) encoder for a served
// model identifier.
type EncoderFactory func(model string) encoder.IModelEncoder

// encoderPool keeps one encoder per served model so decorator caches
// survive across requests.
type encoderPool struct {
	mu      sync.Mutex
	factory EncoderFactory
	items   map[string]encoder.IModelEncoder
}

func newEncoderPool(factory EncoderFactory) *encoderPool {
	return &encoderPool{factory: factory, items: make(map[string]encoder.IModelEncoder)}
}

func (p *encoderPool) get(model string) encoder.IModelEncoder {
	p.mu.Lock()
	defer p.mu.Unlock()
	if enc, ok := p.items[model]; ok {
		return enc
	}
	enc := p.factory(model)
	p.items[model] = enc
	return enc
}
