package ui

import (
	"context"
	"errors"

	"github.com/pkordes/mapty/internal/domain"
)

// ErrGeolocationUnavailable is the failure a Position reports when the
// browser could not determine a position.
var ErrGeolocationUnavailable = errors.New("geolocation unavailable")

// Position is a geolocation result the browser already resolved and sent
// along with its session request. It satisfies session.Geolocator.
type Position struct {
	Coords *domain.Coords
	Reason string // browser-supplied failure detail, for logs only
}

// CurrentPosition returns the browser's position, or
// ErrGeolocationUnavailable when it sent none.
func (p Position) CurrentPosition(_ context.Context) (domain.Coords, error) {
	if p.Coords == nil {
		if p.Reason != "" {
			return domain.Coords{}, errors.Join(ErrGeolocationUnavailable, errors.New(p.Reason))
		}
		return domain.Coords{}, ErrGeolocationUnavailable
	}
	return *p.Coords, nil
}
