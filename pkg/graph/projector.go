package graph

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/lendfield/clover/pkg/models"
	"github.com/lendfield/clover/pkg/tracing"
)

// Projector writes a borrower's opportunity groups into the graph as
// (:User)-[:OPPORTUNITY]->(:User) edges so downstream tooling can explore the
// lending network.
type Projector struct {
	client *Client
	logger ectologger.Logger
}

// NewProjector creates a new group projector
func NewProjector(client *Client, logger ectologger.Logger) *Projector {
	return &Projector{
		client: client,
		logger: logger,
	}
}

// SyncBorrower replaces the borrower's OPPORTUNITY edges with the given
// groups. Expired groups lose their edge; all others carry score, match count
// and status as edge properties. The whole sync runs in one write transaction.
func (p *Projector) SyncBorrower(ctx context.Context, borrowerID string, groups []models.MatchGroup) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.SyncBorrower")
	defer span.End()

	var active []models.MatchGroup
	activeLenders := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.Status == models.MatchGroupStatusExpired {
			continue
		}
		active = append(active, g)
		activeLenders = append(activeLenders, g.LenderID)
	}

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (b:User {id: $borrowerId})-[r:OPPORTUNITY]->(l:User)
			WHERE NOT l.id IN $lenderIds
			DELETE r`,
			map[string]any{
				"borrowerId": borrowerID,
				"lenderIds":  activeLenders,
			}); err != nil {
			return nil, err
		}

		for _, g := range active {
			if _, err := tx.Run(ctx, `
				MERGE (b:User {id: $borrowerId})
				MERGE (l:User {id: $lenderId})
				MERGE (b)-[r:OPPORTUNITY]->(l)
				SET r.score = $score,
				    r.matchCount = $matchCount,
				    r.status = $status,
				    r.updatedAt = timestamp()`,
				map[string]any{
					"borrowerId": g.BorrowerID,
					"lenderId":   g.LenderID,
					"score":      g.Score,
					"matchCount": g.MatchCount,
					"status":     string(g.Status),
				}); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"borrower_id": borrowerID,
			"groups":      len(active),
		}).Error("Failed to sync opportunity edges")
		return err
	}

	return nil
}
