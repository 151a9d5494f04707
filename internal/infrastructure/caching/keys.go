package caching

import "fmt"

// Cache keys follow "<system>:<collection>:<selector>[:<variant>]".
// The "pb" namespace covers backend content collections; ads and analytics
// carry their own namespaces so subsystem-wide invalidation stays cheap.
const ContentNamespace = "pb"

// PostsListKey returns the key for a cached post list. Public and preview
// variants are disjoint keys so they can never serve each other's payload.
func PostsListKey(variant string) string {
	return fmt.Sprintf("%s:posts:list:%s", ContentNamespace, variant)
}

// CollectionPattern returns the invalidation pattern covering every cached
// selector of one content collection.
func CollectionPattern(collection string) string {
	return fmt.Sprintf("%s:%s:*", ContentNamespace, collection)
}

// AdPositionKey returns the key for the eligible-ad list of one
// (pageType, slotType) position.
func AdPositionKey(pageType, slotType string) string {
	return fmt.Sprintf("ads:position:%s:%s", pageType, slotType)
}

// AdPositionPattern matches every cached ad position.
const AdPositionPattern = "ads:position:*"

// AnalyticsKey returns the key for a cached aggregation. The selector must
// encode the exact range (including explicit from/to for custom ranges) so
// distinct ranges never collide.
func AnalyticsKey(rangeSelector string) string {
	return fmt.Sprintf("analytics:%s", rangeSelector)
}

// AnalyticsPattern matches every cached aggregation.
const AnalyticsPattern = "analytics:*"
