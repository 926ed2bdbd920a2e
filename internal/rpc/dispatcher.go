package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/logger"
)

// ErrUnknownRPC is returned for an id no handler is registered under.
var ErrUnknownRPC = errors.New("unknown rpc id")

type handlerFunc func(ctx context.Context, accountID string, payload []byte) (*Response, error)

// Dispatcher serves the RPC protocol from a backend.Service. Hosts (HTTP, Nakama)
// authenticate the caller and pass the session's account id; the payload never names it.
type Dispatcher struct {
	svc      backend.Service
	validate *validator.Validate
	handlers map[string]handlerFunc
}

// NewDispatcher registers every RPC id against svc.
func NewDispatcher(svc backend.Service) *Dispatcher {
	d := &Dispatcher{svc: svc, validate: validator.New(validator.WithRequiredStructEnabled())}
	d.handlers = map[string]handlerFunc{
		RPCClaimDaily:        d.claimTrack(domain.TrackDaily),
		RPCClaimNewPlayer:    d.claimTrack(domain.TrackNewPlayer),
		RPCClaimBattlePass:   d.claimBattlePass,
		RPCUnlockPremium:     d.unlockPremium,
		RPCAddAccountExp:     d.addExp(domain.AxisAccount),
		RPCAddCharacterExp:   d.addExp(domain.AxisCharacter),
		RPCAddMasteryExp:     d.addExp(domain.AxisMastery),
		RPCCompleteSession:   d.completeSession,
		RPCRedeemCoupon:      d.redeemCoupon,
		RPCPurchaseOffer:     d.purchaseOffer,
		RPCUpgradeItem:       d.upgradeItem,
		RPCFetchSnapshot:     d.fetchSnapshot,
		RPCFetchSubstructure: d.fetchSubstructure,
	}
	return d
}

// IDs returns the registered RPC ids, sorted.
func (d *Dispatcher) IDs() []string {
	ids := make([]string, 0, len(d.handlers))
	for id := range d.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dispatch runs one RPC for accountID. Rule rejections, including malformed payloads,
// come back as a Response with Success false. The returned error is reserved for
// unknown ids and transport failures the caller should retry.
func (d *Dispatcher) Dispatch(ctx context.Context, id, accountID string, payload []byte) (*Response, error) {
	h, ok := d.handlers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRPC, id)
	}
	resp, err := h(ctx, accountID, payload)
	if err == nil {
		return resp, nil
	}
	switch domain.KindOf(err) {
	case domain.KindTransport, domain.KindUnauthenticated:
		return nil, err
	}
	logger.FromContext(ctx).Debug("RPC rejected", "rpc", id, "account_id", accountID, "reason", domain.ReasonOf(err), "error", err)
	return &Response{Success: false, ReasonCode: domain.ReasonOf(err)}, nil
}

// decode unmarshals and validates a payload. An empty payload decodes to the zero value.
func (d *Dispatcher) decode(op string, payload []byte, v any) error {
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, v); err != nil {
			return domain.Validation(op, domain.ReasonGenericError, err)
		}
	}
	if err := d.validate.Struct(v); err != nil {
		return domain.Validation(op, domain.ReasonGenericError, err)
	}
	return nil
}

func resultResponse(res *backend.Result, err error) (*Response, error) {
	if err != nil {
		return nil, err
	}
	changes := res.Changes
	return &Response{Success: true, Changes: &changes, Balances: res.Balances}, nil
}

func (d *Dispatcher) claimTrack(kind domain.TrackKind) handlerFunc {
	return func(ctx context.Context, accountID string, payload []byte) (*Response, error) {
		var req ClaimRequest
		if err := d.decode(string(kind), payload, &req); err != nil {
			return nil, err
		}
		return resultResponse(backend.ClaimTrack(ctx, d.svc, accountID, kind, req.Index, req.Reward))
	}
}

func (d *Dispatcher) claimBattlePass(ctx context.Context, accountID string, payload []byte) (*Response, error) {
	var req ClaimRequest
	if err := d.decode(RPCClaimBattlePass, payload, &req); err != nil {
		return nil, err
	}
	return resultResponse(d.svc.ClaimBattlePassReward(ctx, accountID, req.Index, req.Reward))
}

func (d *Dispatcher) unlockPremium(ctx context.Context, accountID string, _ []byte) (*Response, error) {
	return resultResponse(d.svc.UnlockBattlePassPremium(ctx, accountID))
}

func (d *Dispatcher) addExp(axis domain.LevelAxis) handlerFunc {
	return func(ctx context.Context, accountID string, payload []byte) (*Response, error) {
		var req ExpRequest
		if err := d.decode(string(axis), payload, &req); err != nil {
			return nil, err
		}
		switch axis {
		case domain.AxisCharacter:
			return resultResponse(d.svc.AddCharacterExp(ctx, accountID, req.CharacterID, req.Amount))
		case domain.AxisMastery:
			return resultResponse(d.svc.AddCharacterMasteryExp(ctx, accountID, req.CharacterID, req.Amount))
		default:
			return resultResponse(d.svc.AddAccountExp(ctx, accountID, req.Amount))
		}
	}
}

func (d *Dispatcher) completeSession(ctx context.Context, accountID string, payload []byte) (*Response, error) {
	var req domain.SessionSummary
	if err := d.decode(RPCCompleteSession, payload, &req); err != nil {
		return nil, err
	}
	return resultResponse(d.svc.CompleteGameSession(ctx, accountID, req))
}

func (d *Dispatcher) redeemCoupon(ctx context.Context, accountID string, payload []byte) (*Response, error) {
	var req CouponRequest
	if err := d.decode(RPCRedeemCoupon, payload, &req); err != nil {
		return nil, err
	}
	return resultResponse(d.svc.RedeemCoupon(ctx, accountID, req.Code))
}

func (d *Dispatcher) purchaseOffer(ctx context.Context, accountID string, payload []byte) (*Response, error) {
	var req OfferRequest
	if err := d.decode(RPCPurchaseOffer, payload, &req); err != nil {
		return nil, err
	}
	return resultResponse(d.svc.PurchaseOffer(ctx, accountID, req.OfferID))
}

func (d *Dispatcher) upgradeItem(ctx context.Context, accountID string, payload []byte) (*Response, error) {
	var req UpgradeRequest
	if err := d.decode(RPCUpgradeItem, payload, &req); err != nil {
		return nil, err
	}
	return resultResponse(d.svc.UpgradeItem(ctx, accountID, req.UniqueID, req.StatIndex))
}

func (d *Dispatcher) fetchSnapshot(ctx context.Context, accountID string, _ []byte) (*Response, error) {
	snap, err := d.svc.FetchAccountSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &Response{Success: true, Snapshot: snap}, nil
}

func (d *Dispatcher) fetchSubstructure(ctx context.Context, accountID string, payload []byte) (*Response, error) {
	var req SubstructureRequest
	if err := d.decode(RPCFetchSubstructure, payload, &req); err != nil {
		return nil, err
	}
	part, err := domain.ParsePart(string(req.Part))
	if err != nil {
		return nil, domain.Validation(RPCFetchSubstructure, domain.ReasonGenericError, err)
	}
	var snap *domain.Snapshot
	if f, ok := d.svc.(backend.SubstructureFetcher); ok {
		snap, err = f.FetchSubstructure(ctx, accountID, part)
	} else {
		snap, err = d.svc.FetchAccountSnapshot(ctx, accountID)
		if err == nil {
			snap = snap.Only(part)
		}
	}
	if err != nil {
		return nil, err
	}
	return &Response{Success: true, Snapshot: snap}, nil
}
