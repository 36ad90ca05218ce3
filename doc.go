// Package draftmill is the embeddable client for the draftmill content
// orchestration engine: multi-strategy knowledge retrieval with TTL caching
// and rate limiting, plus phase-based content workflows with a single
// quality-gated refinement pass.
//
// Minimal usage:
//
//	client, err := draftmill.New(
//		draftmill.WithRedis("localhost:6379"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	docs, err := client.Search(ctx, draftmill.SearchParams{
//		Query:  "stress management techniques",
//		Domain: "clinical-psychology",
//	})
//
// Content creation runs on built-in simulated collaborators unless real
// ones are supplied with WithDelegator and WithScorer.
package draftmill
