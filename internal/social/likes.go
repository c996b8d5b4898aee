package social

import "sync"

// LikeIndex maps a post id to the set of users who liked it. Membership is a
// true set: liking twice leaves the set unchanged.
type LikeIndex struct {
	mu    sync.RWMutex
	likes map[string]map[string]struct{}
}

func NewLikeIndex() *LikeIndex {
	return &LikeIndex{likes: make(map[string]map[string]struct{})}
}

// Like records userID liking postID, reporting whether anything changed.
func (l *LikeIndex) Like(postID, userID string) bool {
	if postID == "" || userID == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.likes[postID]
	if !ok {
		set = make(map[string]struct{})
		l.likes[postID] = set
	}
	if _, exists := set[userID]; exists {
		return false
	}
	set[userID] = struct{}{}
	return true
}

// Unlike removes userID from the post's like set, reporting whether it was
// present.
func (l *LikeIndex) Unlike(postID, userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.likes[postID]
	if !ok {
		return false
	}
	if _, exists := set[userID]; !exists {
		return false
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(l.likes, postID)
	}
	return true
}

// Count returns the size of a post's like set.
func (l *LikeIndex) Count(postID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.likes[postID])
}

// Likers lists the users who like a post, sorted.
func (l *LikeIndex) Likers(postID string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sortedKeys(l.likes[postID])
}
