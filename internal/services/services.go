// package services defines the remote operations a sync depends on and implements them for bangumi.
package services

import "context"

// WishListSource fetches pages of a user's wish ("想看") list.
type WishListSource interface {
	// FetchWishPage returns the raw markup of a 1-based page, newest release first.
	FetchWishPage(ctx context.Context, page int) (string, error)
}

// CollectionUpdater changes the collection status of a subject.
type CollectionUpdater interface {
	// UpdateCollection sets the status of subjectID. Only an accepted update returns nil.
	UpdateCollection(ctx context.Context, subjectID string, status CollectionType) error
}

// CollectionType is the bangumi v0 collection status code.
type CollectionType int

const (
	CollectionWish     CollectionType = 1 // 想看
	CollectionDone     CollectionType = 2 // 看过
	CollectionWatching CollectionType = 3 // 在看
	CollectionOnHold   CollectionType = 4 // 搁置
	CollectionDropped  CollectionType = 5 // 抛弃
)

func (c CollectionType) String() string {
	switch c {
	case CollectionWish:
		return "wish"
	case CollectionDone:
		return "done"
	case CollectionWatching:
		return "watching"
	case CollectionOnHold:
		return "on_hold"
	case CollectionDropped:
		return "dropped"
	default:
		return ""
	}
}
