// Package domain defines the supply-scarcity tool types
package domain

import "flatsense/internal/services/market/domain"

// Ranking is the t_low_supply output
// Towns is ascending by count (scarcest first), ties broken by town name
type Ranking struct {
	Years    int                `json:"years"`
	FlatType string             `json:"flat_type,omitempty"`
	Cutoff   string             `json:"cutoff_month"`
	Towns    []domain.VolumeRow `json:"towns"`
}
