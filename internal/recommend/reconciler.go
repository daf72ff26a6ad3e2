// Package recommend turns an oracle ranking into display-ready items.
package recommend

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"thrift/internal/observability"
	"thrift/internal/oracle"
	"thrift/models"
)

// DefaultTimeout bounds a single oracle round trip.
const DefaultTimeout = 15 * time.Second

// Reconciler asks the oracle for a ranking and reconciles it with live inventory.
type Reconciler struct {
	ranker  oracle.Ranker
	timeout time.Duration
	logger  *slog.Logger
}

// NewReconciler creates a Reconciler. A non-positive timeout uses DefaultTimeout.
func NewReconciler(ranker oracle.Ranker, timeout time.Duration, logger *slog.Logger) *Reconciler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{ranker: ranker, timeout: timeout, logger: logger}
}

// Enabled reports whether recommendations can be produced at all.
func (r *Reconciler) Enabled() bool {
	return r.ranker != nil && r.ranker.Enabled()
}

// Recommend returns up to oracle.MaxRecommendations available items from catalog,
// most relevant first. It never fails: every oracle problem degrades to an empty
// result. A cancelled ctx also yields an empty result.
func (r *Reconciler) Recommend(ctx context.Context, interests string, catalog []models.Item) []models.Item {
	if !r.Enabled() {
		return []models.Item{}
	}
	candidates := Project(catalog)
	if len(candidates) == 0 {
		return []models.Item{}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.ranker.Rank(ctx, interests, candidates)
	if err != nil {
		r.logFailure(ctx, "oracle call failed", err)
		return []models.Item{}
	}

	ids, err := oracle.DecodeRanking(raw)
	if err != nil {
		observability.OracleRequests.WithLabelValues(observability.OutcomeMalformed).Inc()
		r.logFailure(ctx, "oracle response rejected", err)
		return []models.Item{}
	}

	return Resolve(ids, catalog)
}

func (r *Reconciler) logFailure(ctx context.Context, msg string, err error) {
	// Supersession cancels the context; that is not a failure.
	if errors.Is(err, context.Canceled) {
		return
	}
	r.logger.WarnContext(ctx, msg, slog.String("error", err.Error()))
}

// Project reduces the available items in catalog to oracle candidates.
func Project(catalog []models.Item) []oracle.Candidate {
	out := make([]oracle.Candidate, 0, len(catalog))
	for _, it := range catalog {
		if !it.IsAvailable() {
			continue
		}
		out = append(out, oracle.Candidate{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Tags:        strings.Join(it.Tags, ", "),
			Price:       it.Price,
		})
	}
	return out
}

// Resolve maps ranked ids to catalog items. Ids that are unknown, sold, or
// repeated are dropped; the survivors keep oracle order and are capped at
// oracle.MaxRecommendations.
func Resolve(ids []uint, catalog []models.Item) []models.Item {
	byID := make(map[uint]models.Item, len(catalog))
	for _, it := range catalog {
		byID[it.ID] = it
	}

	seen := make(map[uint]struct{}, len(ids))
	out := make([]models.Item, 0, oracle.MaxRecommendations)
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			observability.RecommendationsDropped.WithLabelValues("duplicate").Inc()
			continue
		}
		seen[id] = struct{}{}

		it, ok := byID[id]
		switch {
		case !ok:
			observability.RecommendationsDropped.WithLabelValues("unknown").Inc()
			continue
		case !it.IsAvailable():
			observability.RecommendationsDropped.WithLabelValues("unavailable").Inc()
			continue
		}
		out = append(out, it)
		if len(out) == oracle.MaxRecommendations {
			break
		}
	}
	return out
}
