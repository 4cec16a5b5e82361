package usecase

import (
	"context"
	"fmt"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// Persister reconciles a fetched batch with the store under one refresh policy.
type Persister struct {
	store      ports.ArticleStore
	classifier ports.Classifier
	policy     domain.RefreshPolicy
	inline     bool
}

// NewPersister builds a persister; a nil classifier disables inline classification.
func NewPersister(store ports.ArticleStore, classifier ports.Classifier, policy domain.RefreshPolicy, inline bool) *Persister {
	return &Persister{
		store:      store,
		classifier: classifier,
		policy:     policy,
		inline:     inline && classifier != nil,
	}
}

// Policy returns the configured refresh policy.
func (p *Persister) Policy() domain.RefreshPolicy {
	return p.policy
}

// PersistResult counts what one Persist call changed.
type PersistResult struct {
	Inserted   int
	Classified int
}

// Persist writes the batch and then labels every stored row that still has
// no category, all in a single transaction. On error nothing is visible.
//
// Replace-all empties the table first. Both policies skip a title that is
// already stored, which under replace-all only happens for repeats inside
// the batch. enter, when set, is told when the classifying pass begins.
func (p *Persister) Persist(ctx context.Context, batch []domain.Article, enter func(domain.CycleState)) (PersistResult, error) {
	var res PersistResult
	err := p.store.InTx(ctx, func(tx ports.ArticleTx) error {
		if p.policy == domain.PolicyReplaceAll {
			if _, err := tx.DeleteAll(ctx); err != nil {
				return err
			}
		}

		for _, art := range batch {
			exists, err := tx.ExistsByTitle(ctx, art.Title)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			if p.inline && !art.Classified() {
				art.Category = p.classifier.ClassifyTitle(art.Title)
			}

			if _, err := tx.Insert(ctx, art); err != nil {
				return err
			}
			res.Inserted++
		}

		if enter != nil {
			enter(domain.StateClassifying)
		}
		classified, err := p.classifyPending(ctx, tx)
		if err != nil {
			return fmt.Errorf("classify pending: %w", err)
		}
		res.Classified = classified
		return nil
	})
	if err != nil {
		return PersistResult{}, fmt.Errorf("persist batch (%s): %w", p.policy, err)
	}
	return res, nil
}

func (p *Persister) classifyPending(ctx context.Context, tx ports.ArticleTx) (int, error) {
	if p.classifier == nil {
		return 0, nil
	}

	pending, err := tx.ListUnclassified(ctx)
	if err != nil {
		return 0, err
	}
	for i, art := range pending {
		if err := tx.UpdateCategory(ctx, art.ID, p.classifier.ClassifyTitle(art.Title)); err != nil {
			return i, err
		}
	}
	return len(pending), nil
}
