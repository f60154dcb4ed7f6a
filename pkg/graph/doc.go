// Package graph provides access to the knowledge graph units consult while a
// pipeline is built and run: solver results, observations about package
// versions, and the package indexes that may be used.
//
// SQLiteGraph stores this data in a local SQLite database with embedded
// migrations; CachedGraph puts an LRU cache in front of any KnowledgeGraph.
//
//	g, err := graph.Open(ctx, graph.Config{Path: "kg.db"})
//	if err != nil {
//		return err
//	}
//	defer g.Close()
//
//	cached, err := graph.NewCachedGraph(g, 0)
package graph
