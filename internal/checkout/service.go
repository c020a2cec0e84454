package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jumla-app/trader-gateway/internal/cart"
	"github.com/jumla-app/trader-gateway/internal/catalog"
	"github.com/jumla-app/trader-gateway/internal/common"
	"github.com/jumla-app/trader-gateway/internal/lock"
	"github.com/jumla-app/trader-gateway/internal/obs"
	"github.com/jumla-app/trader-gateway/internal/pricing"
	"github.com/jumla-app/trader-gateway/internal/upstream"
)

type orderSubmitter interface {
	SubmitOrder(ctx context.Context, token string, order upstream.OrderSubmission) error
}

type areaResolver interface {
	Area(ctx context.Context, token, areaID string) (upstream.DeliveryArea, error)
}

// Service turns a session's cart into an order submission. One submission may
// be in flight per session at a time; the cart stays editable meanwhile and is
// cleared only by the exact snapshot that was submitted.
type Service struct {
	Carts         *cart.Store
	Upstream      orderSubmitter
	Areas         areaResolver
	MinOrderTotal pricing.Money
	Lock          lock.SubmitLock
	Metrics       *obs.DomainMetrics
	Logger        zerolog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// Receipt summarises an accepted submission.
type Receipt struct {
	Stores  int             `json:"stores"`
	Summary pricing.Summary `json:"summary"`
}

// Submit validates the cart, posts it upstream and clears the submitted lines
// on success. On any failure the cart is left untouched.
func (s *Service) Submit(ctx context.Context, session common.Session, areaID string) (Receipt, error) {
	if s == nil || s.Carts == nil || s.Upstream == nil {
		return Receipt{}, errors.New("checkout: service not configured")
	}
	if session.TraderID == "" {
		return Receipt{}, &common.AppError{
			Code: "FORBIDDEN", Message: "trader account required", HTTPStatus: http.StatusForbidden,
		}
	}
	if areaID == "" {
		return Receipt{}, &common.AppError{
			Code: "NO_AREA", Message: "delivery area is required", HTTPStatus: http.StatusBadRequest,
		}
	}
	if !s.begin(session.ID) {
		return Receipt{}, &common.AppError{
			Code: "SUBMITTING", Message: "a submission is already in progress", HTTPStatus: http.StatusConflict,
		}
	}
	defer s.end(session.ID)
	acquired, err := s.Lock.TryAcquire(ctx, session.ID)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("submit lock unavailable, relying on in-process flag")
	} else if !acquired {
		return Receipt{}, &common.AppError{
			Code: "SUBMITTING", Message: "a submission is already in progress", HTTPStatus: http.StatusConflict,
		}
	} else {
		defer s.Lock.Release(ctx, session.ID)
	}

	snapshot := s.Carts.Snapshot(session.ID)
	if len(snapshot) == 0 {
		return Receipt{}, &common.AppError{
			Code: "EMPTY_CART", Message: "cart is empty", HTTPStatus: http.StatusUnprocessableEntity,
		}
	}
	if !snapshot.AllMeetMinimum(s.MinOrderTotal) {
		return Receipt{}, &common.AppError{
			Code:       "MIN_ORDER",
			Message:    fmt.Sprintf("every store must reach a subtotal of %s", pricing.FormatAmount(s.MinOrderTotal)),
			HTTPStatus: http.StatusUnprocessableEntity,
			Details:    map[string]any{"below_minimum": belowMinimum(snapshot, s.MinOrderTotal)},
		}
	}

	area, err := s.Areas.Area(ctx, session.Token, areaID)
	if err != nil {
		if errors.Is(err, catalog.ErrAreaNotFound) {
			return Receipt{}, &common.AppError{
				Code: "NO_AREA", Message: "unknown delivery area", HTTPStatus: http.StatusUnprocessableEntity, Err: err,
			}
		}
		return Receipt{}, fmt.Errorf("resolve area: %w", err)
	}

	submission := buildSubmission(session.TraderID, areaID, snapshot)
	if err := s.Upstream.SubmitOrder(ctx, session.Token, submission); err != nil {
		s.Logger.Warn().Err(err).Str("session_id", session.ID).Msg("order submission rejected")
		if _, ok := upstream.AsValidation(err); ok {
			s.Metrics.ObserveCheckout("rejected")
		} else {
			s.Metrics.ObserveCheckout("failed")
		}
		return Receipt{}, wrapSubmitError(err)
	}
	s.Metrics.ObserveCheckout("accepted")

	s.Carts.ClearLines(session.ID, snapshot)
	summary := pricing.Compute(storeSubtotals(snapshot), area.Price.Money())
	s.Logger.Info().
		Str("session_id", session.ID).
		Int("stores", len(submission.Orders)).
		Int64("total", int64(summary.Total)).
		Msg("order submitted")
	return Receipt{Stores: len(submission.Orders), Summary: summary}, nil
}

func (s *Service) begin(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight == nil {
		s.inflight = make(map[string]bool)
	}
	if s.inflight[sessionID] {
		return false
	}
	s.inflight[sessionID] = true
	return true
}

func (s *Service) end(sessionID string) {
	s.mu.Lock()
	delete(s.inflight, sessionID)
	s.mu.Unlock()
}

// buildSubmission serialises the snapshot in store ID order so retries produce
// byte-identical payloads.
func buildSubmission(traderID, areaID string, snapshot cart.Cart) upstream.OrderSubmission {
	storeIDs := make([]string, 0, len(snapshot))
	for id := range snapshot {
		storeIDs = append(storeIDs, id)
	}
	sort.Strings(storeIDs)

	orders := make([]upstream.StoreOrder, 0, len(storeIDs))
	for _, storeID := range storeIDs {
		sc := snapshot[storeID]
		products := make([]upstream.OrderProduct, 0, len(sc.Items))
		for _, it := range sc.Items {
			products = append(products, upstream.OrderProduct{
				ProductID: it.Product.ID,
				Quantity:  it.Quantity,
				Price:     pricing.FormatAmount(it.Product.UnitPrice),
			})
		}
		orders = append(orders, upstream.StoreOrder{
			WholesaleStoreID: storeID,
			Products:         products,
			Deferred:         sc.Deferred,
		})
	}
	return upstream.OrderSubmission{TraderID: traderID, AreaID: areaID, Orders: orders}
}

func storeSubtotals(snapshot cart.Cart) []pricing.Money {
	subtotals := make([]pricing.Money, 0, len(snapshot))
	for _, sc := range snapshot {
		subtotals = append(subtotals, sc.Subtotal())
	}
	return subtotals
}

func belowMinimum(snapshot cart.Cart, threshold pricing.Money) []string {
	var ids []string
	for id, sc := range snapshot {
		if !sc.MeetsMinimum(threshold) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func wrapSubmitError(err error) error {
	if verr, ok := upstream.AsValidation(err); ok {
		details := make(map[string]any, len(verr.Fields))
		for field, messages := range verr.Fields {
			details[field] = messages
		}
		message := verr.Message
		if message == "" {
			message = "order rejected by marketplace"
		}
		return &common.AppError{
			Code: "VALIDATION", Message: message, HTTPStatus: http.StatusUnprocessableEntity, Err: err, Details: details,
		}
	}
	status := upstream.StatusOf(err)
	if status == 0 || status >= 500 {
		return &common.AppError{
			Code: "UPSTREAM_ERROR", Message: "marketplace unavailable, cart preserved", HTTPStatus: http.StatusBadGateway, Err: err,
		}
	}
	return &common.AppError{
		Code: "UPSTREAM_ERROR", Message: err.Error(), HTTPStatus: status, Err: err,
	}
}
