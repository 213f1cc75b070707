package properties

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

type fakeProvider struct {
	name  string
	label string
	items []RawItem
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) Label() string   { return p.label }
func (p *fakeProvider) SiteURL() string { return "https://" + p.name + ".example" }

func (p *fakeProvider) Fetch(ctx context.Context, _ SearchParams) ([]RawItem, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	out := make([]RawItem, len(p.items))
	for i, item := range p.items {
		cp := RawItem{}
		for k, v := range item {
			cp[k] = v
		}
		out[i] = cp
	}
	return out, nil
}

func magicBricksFake(n int) *fakeProvider {
	p := &fakeProvider{name: SourceMagicBricks, label: "MagicBricks"}
	for i := 0; i < n; i++ {
		p.items = append(p.items, RawItem{"name": "Flat", "price": float64(4500000 + i)})
	}
	return p
}

func failingFake(name, label string) *fakeProvider {
	return &fakeProvider{name: name, label: label, err: errors.New("actor run timed out")}
}
