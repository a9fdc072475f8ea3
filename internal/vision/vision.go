// Package vision talks to hosted vision-language models. Callers get the
// model's free text back and run it through ParseAnalysis or ParseVerdict.
package vision

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

var ErrProvider = errors.New("vision provider error")

type Classifier interface {
	Classify(ctx context.Context, imageURL, prompt string) (string, error)
	Compare(ctx context.Context, imageURL1, imageURL2, prompt string) (string, error)
}

// Observer receives one call per provider request.
type Observer func(op string, elapsed time.Duration, err error)

// Paced wraps a Classifier with a shared rate limit and a per-call deadline.
type Paced struct {
	next    Classifier
	limiter *rate.Limiter
	timeout time.Duration
	observe Observer
}

func NewPaced(next Classifier, limiter *rate.Limiter, timeout time.Duration, observe Observer) *Paced {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Paced{next: next, limiter: limiter, timeout: timeout, observe: observe}
}

func (p *Paced) Classify(ctx context.Context, imageURL, prompt string) (string, error) {
	return p.run(ctx, "classify", func(ctx context.Context) (string, error) {
		return p.next.Classify(ctx, imageURL, prompt)
	})
}

func (p *Paced) Compare(ctx context.Context, imageURL1, imageURL2, prompt string) (string, error) {
	return p.run(ctx, "compare", func(ctx context.Context) (string, error) {
		return p.next.Compare(ctx, imageURL1, imageURL2, prompt)
	})
}

func (p *Paced) run(ctx context.Context, op string, call func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	start := time.Now()
	reply, err := call(ctx)
	if p.observe != nil {
		p.observe(op, time.Since(start), err)
	}
	return reply, err
}
