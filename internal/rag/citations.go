package rag

// ResolveCitations maps the chunk ids that survived into the assembled
// context to their distinct source paths, preserving the order in which
// they first appear in the context.
func ResolveCitations(chunkIDs []string, retrieved []RetrievedChunk) []string {
	byID := make(map[string]string, len(retrieved))
	for _, rc := range retrieved {
		byID[rc.ChunkID] = rc.SourcePath
	}

	sources := make([]string, 0, len(chunkIDs))
	seen := make(map[string]struct{}, len(chunkIDs))
	for _, id := range chunkIDs {
		source, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[source]; dup {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	return sources
}
