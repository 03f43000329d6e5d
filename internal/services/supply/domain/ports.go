package domain

import "context"

// ScarcityPort is the t_low_supply contract
type ScarcityPort interface {
	Rank(ctx context.Context, years int, flatType string, topK int) (Ranking, error)
}
