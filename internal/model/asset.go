package model

// Asset is a fund held by a portfolio, as offered for reallocation targets.
// Assets are keyed by ID; names are for display only and may repeat.
type Asset struct {
	ID   string `json:"assetId"`
	Name string `json:"assetName"`
}
