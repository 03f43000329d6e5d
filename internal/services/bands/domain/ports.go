package domain

import "context"

// BandingPort is the t_price_estimates contract
// month is YYYY-MM; blank means the latest month on record
type BandingPort interface {
	Estimate(ctx context.Context, town, flatType, month string) (Estimate, error)
}
