// Package inventory validates line-item availability against the catalogue
// and debits stock once an order is accepted.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"kart-checkout/internal/model"

	"github.com/rs/zerolog"
)

// MaxQuantity is the largest quantity a line item may request. It matches
// the range of the INTEGER quantity and stock columns.
const MaxQuantity = math.MaxInt32

// Catalog is the subset of the product store the reconciler needs.
type Catalog interface {
	// GetByIDs returns the catalogue records for the given ids. Unknown ids are omitted.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// DecrementStock lowers a product's stock by quantity only if at least
	// quantity units remain. It returns model.ErrStockConflict otherwise.
	DecrementStock(ctx context.Context, id string, quantity int) (remaining int, err error)
}

// Reconciler checks and adjusts inventory for checkout.
type Reconciler struct {
	catalog Catalog
	logger  zerolog.Logger
}

// NewReconciler creates a new inventory reconciler.
func NewReconciler(catalog Catalog, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		catalog: catalog,
		logger:  logger.With().Str("component", "inventory").Logger(),
	}
}

// ValidateAvailability replaces each line item's product with the catalogue
// record and fails with a *model.UnavailableError when any product is inactive
// or short of stock. Products missing from the catalogue count as inactive.
func (r *Reconciler) ValidateAvailability(ctx context.Context, items []model.LineItem) ([]model.LineItem, error) {
	if len(items) == 0 {
		return nil, model.ErrEmptyOrder
	}

	if err := r.checkQuantities(items); err != nil {
		return nil, err
	}

	requested := totalsByProduct(items)
	ids := sortedKeys(requested)

	products, err := r.catalog.GetByIDs(ctx, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("product_count", len(ids)).Msg("catalogue lookup failed")
		return nil, &model.DependencyError{Op: "catalogue lookup", Err: err}
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	unavailable := &model.UnavailableError{}
	for _, id := range ids {
		p, ok := byID[id]
		switch {
		case !ok || !p.Active:
			unavailable.Inactive = append(unavailable.Inactive, id)
		case requested[id] > int64(p.StockQuantity):
			unavailable.Insufficient = append(unavailable.Insufficient, model.StockShortfall{
				ProductID: id,
				Requested: requested[id],
				Available: p.StockQuantity,
			})
		}
	}

	if len(unavailable.Inactive) > 0 || len(unavailable.Insufficient) > 0 {
		r.logger.Warn().
			Strs("inactive", unavailable.Inactive).
			Int("insufficient_count", len(unavailable.Insufficient)).
			Msg("line items unavailable")
		return nil, unavailable
	}

	validated := make([]model.LineItem, len(items))
	for i, item := range items {
		validated[i] = model.LineItem{
			Product:  byID[item.Product.ID],
			Quantity: item.Quantity,
		}
	}

	return validated, nil
}

// ReconcileStock debits the stock of every product referenced by items.
// Products are decremented in id order. Conflicting decrements, and totals no
// stock column can hold, are collected into an insufficient-stock
// *model.UnavailableError; any other failure stops immediately and is
// returned as a *model.DependencyError.
func (r *Reconciler) ReconcileStock(ctx context.Context, items []model.LineItem) error {
	if err := r.checkQuantities(items); err != nil {
		return err
	}

	requested := totalsByProduct(items)

	var shortfalls []model.StockShortfall
	for _, id := range sortedKeys(requested) {
		if requested[id] > MaxQuantity {
			shortfall, err := r.oversized(ctx, id, requested[id])
			if err != nil {
				return err
			}
			shortfalls = append(shortfalls, shortfall)
			continue
		}

		remaining, err := r.catalog.DecrementStock(ctx, id, int(requested[id]))
		if err != nil {
			if errors.Is(err, model.ErrStockConflict) {
				shortfalls = append(shortfalls, model.StockShortfall{
					ProductID: id,
					Requested: requested[id],
					Available: remaining,
				})
				continue
			}
			r.logger.Error().Err(err).Str("product_id", id).Msg("failed to decrement stock")
			return &model.DependencyError{Op: fmt.Sprintf("decrement stock for %s", id), Err: err}
		}

		r.logger.Debug().
			Str("product_id", id).
			Int64("quantity", requested[id]).
			Int("remaining", remaining).
			Msg("stock decremented")
	}

	if len(shortfalls) > 0 {
		r.logger.Warn().Int("conflict_count", len(shortfalls)).Msg("stock changed since validation")
		return &model.UnavailableError{Insufficient: shortfalls}
	}

	return nil
}

// oversized reports a total above MaxQuantity as a shortfall against the
// product's current stock without attempting the debit.
func (r *Reconciler) oversized(ctx context.Context, id string, requested int64) (model.StockShortfall, error) {
	products, err := r.catalog.GetByIDs(ctx, []string{id})
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("catalogue lookup failed")
		return model.StockShortfall{}, &model.DependencyError{Op: "catalogue lookup", Err: err}
	}

	shortfall := model.StockShortfall{ProductID: id, Requested: requested}
	if len(products) > 0 {
		shortfall.Available = products[0].StockQuantity
	}
	return shortfall, nil
}

// checkQuantities rejects any line item outside (0, MaxQuantity].
func (r *Reconciler) checkQuantities(items []model.LineItem) error {
	for i, item := range items {
		if item.Quantity <= 0 || item.Quantity > MaxQuantity {
			r.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.Product.ID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}
	return nil
}

// totalsByProduct sums requested quantities per product id. Sums saturate at
// math.MaxInt64.
func totalsByProduct(items []model.LineItem) map[string]int64 {
	totals := make(map[string]int64, len(items))
	for _, item := range items {
		q := int64(item.Quantity)
		if totals[item.Product.ID] > math.MaxInt64-q {
			totals[item.Product.ID] = math.MaxInt64
			continue
		}
		totals[item.Product.ID] += q
	}
	return totals
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
