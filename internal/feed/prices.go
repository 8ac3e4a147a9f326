package feed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// latestResponse mirrors the Hermes /v2/updates/price/latest payload.
// Price magnitudes arrive as decimal strings.
type latestResponse struct {
	Parsed []struct {
		ID    string `json:"id"`
		Price struct {
			Price       string `json:"price"`
			Conf        string `json:"conf"`
			Expo        int32  `json:"expo"`
			PublishTime int64  `json:"publish_time"`
		} `json:"price"`
	} `json:"parsed"`
}

// LatestQuotes fetches the current reading for all reference assets.
// A missing or unparseable entry for any symbol fails the whole call; the
// oracle's snapshot operation requires a complete reading.
func (c *Client) LatestQuotes(ctx context.Context) (Quotes, error) {
	symbolByID := make(map[string]Symbol, len(feedIDs))
	query := url.Values{}
	for _, sym := range Symbols() {
		id := feedIDs[sym]
		symbolByID[id] = sym
		query.Add("ids[]", id)
	}

	var resp latestResponse
	if err := c.get(ctx, "/v2/updates/price/latest", query, &resp); err != nil {
		return nil, fmt.Errorf("fetch latest quotes: %w", err)
	}

	quotes := make(Quotes, len(resp.Parsed))
	for _, entry := range resp.Parsed {
		sym, ok := symbolByID[entry.ID]
		if !ok {
			c.logger.Debug("ignoring unrequested feed id", "id", entry.ID)
			continue
		}

		price, err := strconv.ParseInt(entry.Price.Price, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse price for %s: %w", sym, err)
		}

		quotes[sym] = Quote{
			Symbol:      sym,
			Price:       price,
			Expo:        entry.Price.Expo,
			PublishedAt: time.Unix(entry.Price.PublishTime, 0),
		}
	}

	for _, sym := range Symbols() {
		if _, ok := quotes[sym]; !ok {
			return nil, fmt.Errorf("feed returned no quote for %s: %w", sym, ErrNoQuotes)
		}
	}

	return quotes, nil
}
