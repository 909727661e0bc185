package anthropic

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint. The extraction instruction payload is identical for every
// comparable in a batch, so caching it across the sequential calls pays for
// itself after the first item.
func BuildCachedSystemBlocks(text, ttl string) []SystemBlock {
	if ttl == "" {
		ttl = "5m"
	}
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: ttl,
			},
		},
	}
}
