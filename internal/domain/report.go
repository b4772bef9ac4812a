package domain

// LotSummary is one row of the admin summary.
type LotSummary struct {
	LotID      int     `json:"lot_id"`
	Name       string  `json:"name"`
	PostalCode int     `json:"pincode"`
	Available  int     `json:"available"`
	Occupied   int     `json:"occupied"`
	Revenue    float64 `json:"revenue"`
}

// SummarySeries holds the same rows as parallel arrays for chart rendering.
// Index i of every slice refers to the same lot.
type SummarySeries struct {
	LotNames  []string  `json:"lot_names"`
	Revenues  []float64 `json:"revenues"`
	Available []int     `json:"available_counts"`
	Occupied  []int     `json:"occupied_counts"`
}

type AdminSummary struct {
	Lots   []LotSummary  `json:"lot_data"`
	Series SummarySeries `json:"series"`
}

// UsageEntry counts one user's reservations at one location.
type UsageEntry struct {
	LocationName string `json:"location"`
	Count        int    `json:"count"`
}

type UserSummary struct {
	Usage     []UsageEntry `json:"usage"`
	Locations []string     `json:"locations"`
	Counts    []int        `json:"counts"`
}
