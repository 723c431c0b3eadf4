package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	ProductKeyPrefix  = "product:%d"
	CategoryKeyPrefix = "category:%d"
	CategoryListKey   = "categories:all"
)

const (
	UserTTL     = 5 * time.Minute
	ProductTTL  = 2 * time.Minute
	CategoryTTL = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ProductKey(productID uint) string {
	return fmt.Sprintf(ProductKeyPrefix, productID)
}

func CategoryKey(categoryID uint) string {
	return fmt.Sprintf(CategoryKeyPrefix, categoryID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateProducts drops cached products; stock changes at checkout call this.
func InvalidateProducts(ctx context.Context, productIDs ...uint) {
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, ProductKey(id))
	}
	Invalidate(ctx, keys...)
}

func InvalidateCategory(ctx context.Context, categoryID uint) {
	Invalidate(ctx, CategoryKey(categoryID), CategoryListKey)
}
