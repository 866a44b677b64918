package social

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/jacentio/arbor/store"
)

// Entity kind names, as used by the reference graph and the cascade.
const (
	KindAccount   = "account"
	KindPost      = "post"
	KindCommunity = "community"
	KindEvent     = "event"
)

// Reference-set and attribute names shared by toggles, the graph, and the
// stream sweeper.
const (
	fieldCommunities = "communities"
	fieldAttending   = "attending_events"
	fieldInterested  = "interested_events"
	fieldMembers     = "members"
	fieldAttendees   = "attendees"
	fieldEventInt    = "interested"
	fieldPosts       = "posts"
	fieldLikers      = "likers"
	fieldFlaggers    = "flaggers"
	fieldCommunityID = "community_id"
	fieldUsername    = "username"

	// attrFeed is the sparse feed-index partition key, present only on
	// community-less posts.
	attrFeed  = "feed"
	feedValue = "POST"
)

// Account is a registered account and its side of every symmetric
// relationship it participates in.
type Account struct {
	ID               string   `dynamodbav:"id"`
	Username         string   `dynamodbav:"username"`
	PasswordHash     string   `dynamodbav:"password_hash"`
	Communities      []string `dynamodbav:"communities,stringset,omitempty"`
	AttendingEvents  []string `dynamodbav:"attending_events,stringset,omitempty"`
	InterestedEvents []string `dynamodbav:"interested_events,stringset,omitempty"`
	Version          int64    `dynamodbav:"version,omitempty"`
	CreatedAt        string   `dynamodbav:"created_at,omitempty"`
	UpdatedAt        string   `dynamodbav:"updated_at,omitempty"`
}

// Post is a post, optionally scoped to a community. Feed carries the sparse
// feed-index key and is managed by Posts.Create; community posts never have
// it, which is what keeps them out of the global and author feeds.
type Post struct {
	ID          string   `dynamodbav:"id"`
	AuthorID    string   `dynamodbav:"author_id"`
	Content     string   `dynamodbav:"content"`
	CommunityID string   `dynamodbav:"community_id,omitempty"`
	Feed        string   `dynamodbav:"feed,omitempty"`
	Likers      []string `dynamodbav:"likers,stringset,omitempty"`
	Flaggers    []string `dynamodbav:"flaggers,stringset,omitempty"`
	Version     int64    `dynamodbav:"version,omitempty"`
	CreatedAt   string   `dynamodbav:"created_at,omitempty"`
	UpdatedAt   string   `dynamodbav:"updated_at,omitempty"`
}

// Community is a named community with member and post reference sets.
type Community struct {
	ID        string   `dynamodbav:"id"`
	Name      string   `dynamodbav:"name"`
	Members   []string `dynamodbav:"members,stringset,omitempty"`
	Posts     []string `dynamodbav:"posts,stringset,omitempty"`
	Version   int64    `dynamodbav:"version,omitempty"`
	CreatedAt string   `dynamodbav:"created_at,omitempty"`
	UpdatedAt string   `dynamodbav:"updated_at,omitempty"`
}

// Event is a scheduled event with attendee and interest reference sets.
type Event struct {
	ID         string   `dynamodbav:"id"`
	Name       string   `dynamodbav:"name"`
	Location   string   `dynamodbav:"location"`
	Time       string   `dynamodbav:"time"`
	CreatorID  string   `dynamodbav:"creator_id"`
	Attendees  []string `dynamodbav:"attendees,stringset,omitempty"`
	Interested []string `dynamodbav:"interested,stringset,omitempty"`
	Version    int64    `dynamodbav:"version,omitempty"`
	CreatedAt  string   `dynamodbav:"created_at,omitempty"`
	UpdatedAt  string   `dynamodbav:"updated_at,omitempty"`
}

// Preference is a per-account side record listing the posts the account has
// liked or flagged, keyed by the account id. It is kept in lockstep with
// the post's own likers/flaggers set.
type Preference struct {
	ID        string   `dynamodbav:"id"`
	Posts     []string `dynamodbav:"posts,stringset,omitempty"`
	Version   int64    `dynamodbav:"version,omitempty"`
	CreatedAt string   `dynamodbav:"created_at,omitempty"`
	UpdatedAt string   `dynamodbav:"updated_at,omitempty"`
}

func decodeAccount(rec *store.Record) (*Account, error) {
	var a Account
	if err := attributevalue.UnmarshalMap(rec.Raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func decodePost(rec *store.Record) (*Post, error) {
	var p Post
	if err := attributevalue.UnmarshalMap(rec.Raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeCommunity(rec *store.Record) (*Community, error) {
	var c Community
	if err := attributevalue.UnmarshalMap(rec.Raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeEvent(rec *store.Record) (*Event, error) {
	var e Event
	if err := attributevalue.UnmarshalMap(rec.Raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func decodePreference(rec *store.Record) (*Preference, error) {
	var p Preference
	if err := attributevalue.UnmarshalMap(rec.Raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
