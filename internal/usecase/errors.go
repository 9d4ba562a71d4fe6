package usecase

import "errors"

var (
	// ErrUnknownSeason is returned for season names outside summer, rainy, winter and spring.
	ErrUnknownSeason = errors.New("unknown season")
	// ErrCatalogUnavailable means no commodity catalog source is configured.
	ErrCatalogUnavailable = errors.New("commodity catalog unavailable")
	ErrCommodityRequired  = errors.New("commodity required")
)
