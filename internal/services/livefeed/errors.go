package livefeed

import (
	"errors"
	"fmt"
)

// Failure codes reported per source and on the final live result.
const (
	CodeNoAPIKey          = "no_api_key"
	CodeCommodityNotFound = "commodity_not_found"
	CodeNoData            = "no_data"
	CodeFetchFailed       = "fetch_failed"
	CodeNoSources         = "no_sources"
)

var messages = map[string]string{
	CodeNoAPIKey:          "Live price API key is not configured.",
	CodeCommodityNotFound: "Commodity was not found in the live price sources.",
	CodeNoData:            "No live price records are available right now.",
	CodeFetchFailed:       "Live price sources could not be reached.",
	CodeNoSources:         "No live price sources are configured.",
}

// Message is the user-facing text for a failure code.
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return messages[CodeFetchFailed]
}

// FeedError is returned by a Source when it produced no records.
type FeedError struct {
	Code   string
	Source string
	Err    error
}

func (e *FeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Code)
}

func (e *FeedError) Unwrap() error { return e.Err }

func newFeedError(source, code string, err error) *FeedError {
	return &FeedError{Code: code, Source: source, Err: err}
}

// CodeOf extracts the failure code, treating foreign errors as fetch failures.
func CodeOf(err error) string {
	var fe *FeedError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeFetchFailed
}
