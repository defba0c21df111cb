package scraper

import (
	"context"
	"encoding/json"

	"powderlines/httputil"
	"powderlines/models"
)

// Handler is the raw extraction collaborator for one resort. FetchTerrain
// returns both the normalized payload and the raw vendor blob, since the
// snapshot layer archives the blob verbatim.
type Handler interface {
	ID() string
	FetchTerrain(ctx context.Context) (*models.TerrainPayload, json.RawMessage, error)
	FetchSnow(ctx context.Context) (*models.SnowPayload, error)
	Close()
}

func NewHandler(r *models.Resort, clients *httputil.Clients) Handler {
	switch r.Handler {
	case "api":
		return NewAPIHandler(r, clients)
	case "browser":
		return NewBrowserHandler(r)
	default:
		return NewBrowserHandler(r)
	}
}
