package social

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/arbor/store"
)

// PostPatch is the closed set of mutable post fields.
type PostPatch struct {
	Content *string
}

// Posts is the post collection.
type Posts struct {
	st      *store.Store
	cascade *Cascader
	tog     *toggler
}

// Create adds a post. With a community id, the post is scoped to that
// community and inserted into the community's post set in the same
// transaction (failing with store.ErrNotFound if the community is gone);
// without one, the post carries the sparse feed key and shows up in the
// global and author feeds.
func (p *Posts) Create(ctx context.Context, authorID, content, communityID string) (*Post, error) {
	if err := validateID("authorId", authorID); err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	tables := p.st.Tables()
	post := Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Content:  content,
	}
	if communityID != "" {
		post.CommunityID = communityID
	} else {
		post.Feed = feedValue
	}

	item, err := attributevalue.MarshalMap(post)
	if err != nil {
		return nil, err
	}

	tx := store.NewTx()
	tx.Put(tables.PostsTable, item, nil)
	tx.CheckExists(tables.AccountsTable, authorID,
		fmt.Errorf("author %s: %w", authorID, store.ErrNotFound))
	if communityID != "" {
		tx.RefAdd(tables.CommunitiesTable, communityID, fieldPosts, post.ID, 0,
			fmt.Errorf("community %s: %w", communityID, store.ErrNotFound))
	}

	if err := p.st.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return p.Get(ctx, post.ID)
}

// Get returns the post by id, or store.ErrNotFound.
func (p *Posts) Get(ctx context.Context, id string) (*Post, error) {
	rec, err := p.st.Get(ctx, p.st.Tables().PostsTable, id)
	if err != nil {
		return nil, err
	}
	return decodePost(rec)
}

// Feed returns the global feed: every community-less post, most recently
// modified first. The sparse feed index enforces the exclusion; community
// posts never carry its key.
func (p *Posts) Feed(ctx context.Context) ([]*Post, error) {
	return p.queryPosts(ctx, store.QueryInput{
		TableName:              p.st.Tables().PostsTable,
		IndexName:              "feed-index",
		KeyConditionExpression: "feed = :feed",
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":feed": &types.AttributeValueMemberS{Value: feedValue},
		},
		Descending: true,
	})
}

// FeedByAuthor returns an author's public feed, with the same community
// exclusion and ordering as the global feed.
func (p *Posts) FeedByAuthor(ctx context.Context, authorID string) ([]*Post, error) {
	return p.queryPosts(ctx, store.QueryInput{
		TableName:              p.st.Tables().PostsTable,
		IndexName:              "author-index",
		KeyConditionExpression: "author_id = :author",
		FilterExpression:       "attribute_not_exists(community_id)",
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":author": &types.AttributeValueMemberS{Value: authorID},
		},
		Descending: true,
	})
}

// ListByCommunity returns a community's posts, most recently modified
// first.
func (p *Posts) ListByCommunity(ctx context.Context, communityID string) ([]*Post, error) {
	return p.queryPosts(ctx, store.QueryInput{
		TableName:              p.st.Tables().PostsTable,
		IndexName:              "community-index",
		KeyConditionExpression: "community_id = :community",
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":community": &types.AttributeValueMemberS{Value: communityID},
		},
		Descending: true,
	})
}

// Update applies the patch and advances the post's modified timestamp,
// which reorders it in the feeds.
func (p *Posts) Update(ctx context.Context, id string, patch PostPatch) (*Post, error) {
	current, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	attrs := map[string]types.AttributeValue{}
	if patch.Content != nil {
		if err := validateContent(*patch.Content); err != nil {
			return nil, err
		}
		attrs["content"] = &types.AttributeValueMemberS{Value: *patch.Content}
	}
	if len(attrs) == 0 {
		return current, nil
	}

	if err := p.st.Update(ctx, p.st.Tables().PostsTable, id, attrs, current.Version); err != nil {
		return nil, err
	}
	return p.Get(ctx, id)
}

// Delete cascades the post out of its community's post set and out of
// every account's like and flag side record, then deletes the post.
func (p *Posts) Delete(ctx context.Context, id string) error {
	return p.cascade.Delete(ctx, KindPost, id)
}

// DeleteByAuthor deletes every post by the author, community-scoped or
// not, each through the full cascade. Returns how many were deleted.
func (p *Posts) DeleteByAuthor(ctx context.Context, authorID string) (int, error) {
	posts, err := p.queryPosts(ctx, store.QueryInput{
		TableName:              p.st.Tables().PostsTable,
		IndexName:              "author-index",
		KeyConditionExpression: "author_id = :author",
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":author": &types.AttributeValueMemberS{Value: authorID},
		},
	})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, post := range posts {
		if err := p.cascade.Delete(ctx, KindPost, post.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// ToggleLike flips accountID's like on the post, mirrored in the account's
// like side record, and returns the updated post.
func (p *Posts) ToggleLike(ctx context.Context, postID, accountID string) (*Post, error) {
	return p.togglePref(ctx, postID, accountID, fieldLikers, p.st.Tables().LikesTable)
}

// ToggleFlag flips accountID's controversial flag on the post, mirrored in
// the account's controversial side record, and returns the updated post.
func (p *Posts) ToggleFlag(ctx context.Context, postID, accountID string) (*Post, error) {
	return p.togglePref(ctx, postID, accountID, fieldFlaggers, p.st.Tables().ControversialTable)
}

func (p *Posts) togglePref(ctx context.Context, postID, accountID, field, prefTable string) (*Post, error) {
	rec, _, err := p.tog.toggle(ctx,
		side{table: p.st.Tables().PostsTable, id: postID, field: field}, accountID,
		side{table: prefTable, id: accountID, field: fieldPosts}, postID,
	)
	if err != nil {
		return nil, err
	}
	return decodePost(rec)
}

func (p *Posts) queryPosts(ctx context.Context, input store.QueryInput) ([]*Post, error) {
	recs, err := p.st.Query(ctx, input)
	if err != nil {
		return nil, err
	}
	posts := make([]*Post, 0, len(recs))
	for _, rec := range recs {
		post, err := decodePost(rec)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}
