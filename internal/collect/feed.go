package collect

import (
	"context"

	"github.com/TobiSchelling/MyTube/internal/models"
)

// maxPerFeed caps how many feed entries are looked up per channel.
const maxPerFeed = 15

// collectChannel resolves a channel's recent uploads through the details
// call so feed videos get the same records and filter as search results.
func (c *Collector) collectChannel(ctx context.Context, r *Result, channelID string) ([]models.Video, bool) {
	ids, err := c.feeds.ChannelVideoIDs(ctx, channelID)
	if err != nil {
		return nil, r.fail(channelID, "feed", err)
	}
	if len(ids) > maxPerFeed {
		ids = ids[:maxPerFeed]
	}
	return c.details(ctx, r, channelID, ids)
}
