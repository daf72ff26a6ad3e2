package marketplace

import (
	"thrift/internal/catalog"
	"thrift/internal/geo"
	"thrift/models"
)

// ListingView is an item decorated for one viewer.
type ListingView struct {
	models.Item
	DistanceMiles float64 `json:"distance_miles"`
	Wishlisted    bool    `json:"wishlisted"`
}

// State is a consistent snapshot of a viewer's marketplace.
// Revision increases with every change so clients can ignore older pushes.
type State struct {
	ViewerID               uint           `json:"viewer_id"`
	Revision               uint64         `json:"revision"`
	Interests              string         `json:"interests"`
	Filter                 catalog.Filter `json:"filter"`
	Listings               []ListingView  `json:"listings"`
	Recommendations        []ListingView  `json:"recommendations"`
	RecommendationsLoading bool           `json:"recommendations_loading"`
	Wishlist               []uint         `json:"wishlist"`
}

func decorate(items []models.Item, viewer geo.Point, wishlisted func(uint) bool) []ListingView {
	out := make([]ListingView, 0, len(items))
	for _, it := range items {
		out = append(out, ListingView{
			Item:          it,
			DistanceMiles: geo.DistanceMiles(viewer, it.Location),
			Wishlisted:    wishlisted(it.ID),
		})
	}
	return out
}
