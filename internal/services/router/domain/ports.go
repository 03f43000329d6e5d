package domain

import "context"

// RouterPort extracts tool arguments from free text
type RouterPort interface {
	// Route resolves (town, flat_type, month, intent) from text
	// an unresolvable query yields IntentUnknown, not an error
	Route(ctx context.Context, text string) (Route, error)
}
