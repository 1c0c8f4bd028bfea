package timesync

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Source fetches the current time from an external authority.
// Implementations make a single attempt and report any failure as an error
// wrapping ErrTimeSyncUnavailable.
type Source interface {
	Name() string
	FetchTime(ctx context.Context) (TimeSample, error)
}

// Fallback tries each source once, in order, and returns the first sample
type Fallback struct {
	sources []Source
}

// NewFallback creates a source chain. Order is priority order.
func NewFallback(sources ...Source) *Fallback {
	return &Fallback{sources: sources}
}

func (f *Fallback) Name() string {
	return "fallback"
}

// FetchTime walks the chain until one source answers
func (f *Fallback) FetchTime(ctx context.Context) (TimeSample, error) {
	if len(f.sources) == 0 {
		return TimeSample{}, fmt.Errorf("%w: no sources configured", ErrTimeSyncUnavailable)
	}

	var errs []error
	for _, src := range f.sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		sample, err := src.FetchTime(ctx)
		if err == nil {
			return sample, nil
		}

		log.Debug().Err(err).Str("source", src.Name()).Msg("time source failed, trying next")
		errs = append(errs, err)
	}

	joined := errors.Join(errs...)
	if errors.Is(joined, ErrTimeSyncUnavailable) {
		return TimeSample{}, joined
	}
	return TimeSample{}, fmt.Errorf("%w: %v", ErrTimeSyncUnavailable, joined)
}
