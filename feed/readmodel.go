package feed

import (
	"github.com/jinzhu/copier"
	"github.com/sparksblog/sparks/model"
)

// assemble joins fetched ideas with their like aggregates into the read
// model served to the viewer. The join key is the idea id; an idea missing
// from counts has zero likes, an idea missing from liked is not liked by the
// current user.
func assemble(ideas []model.Idea, counts map[string]int, liked map[string]bool) []model.FeedIdea {
	out := make([]model.FeedIdea, 0, len(ideas))
	for i := range ideas {
		var item model.FeedIdea
		// field-by-field copy of the overlapping Idea columns
		copier.Copy(&item, &ideas[i])
		item.LikesCount = counts[ideas[i].Id]
		item.UserLiked = liked[ideas[i].Id]
		out = append(out, item)
	}
	return out
}
