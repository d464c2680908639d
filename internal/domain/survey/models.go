package survey

import "time"

// Question belongs to one company. Category is a free-form competency label
// ("Organización", "Liderazgo", ...); the aggregator groups scores by it but
// does not enforce a closed set.
type Question struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Text      string    `json:"question"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}
