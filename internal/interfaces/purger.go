package interfaces

import "context"

//go:generate mockgen -package=mock -source=purger.go -destination=mock/purger.go

// Purger purges cached files from a Cloudflare zone by URL
type Purger interface {
	PurgeByURL(ctx context.Context, zone string, urls []string) error
}
