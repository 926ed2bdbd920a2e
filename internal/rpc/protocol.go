// Package rpc carries ledger operations over HTTP: the wire protocol, a client that
// implements backend.Service, and a Dispatcher that serves it from any backend.Service.
package rpc

import (
	"time"

	"github.com/osse101/playerledger/internal/domain"
)

// RPC ids, shared by the HTTP host and the Nakama runtime module.
const (
	RPCClaimDaily        = "ledger_claim_daily"
	RPCClaimNewPlayer    = "ledger_claim_new_player"
	RPCClaimBattlePass   = "ledger_claim_battle_pass"
	RPCUnlockPremium     = "ledger_unlock_premium"
	RPCAddAccountExp     = "ledger_add_account_exp"
	RPCAddCharacterExp   = "ledger_add_character_exp"
	RPCAddMasteryExp     = "ledger_add_mastery_exp"
	RPCCompleteSession   = "ledger_complete_session"
	RPCRedeemCoupon      = "ledger_redeem_coupon"
	RPCPurchaseOffer     = "ledger_purchase_offer"
	RPCUpgradeItem       = "ledger_upgrade_item"
	RPCFetchSnapshot     = "ledger_fetch_snapshot"
	RPCFetchSubstructure = "ledger_fetch_substructure"
)

// HTTP surface
const (
	RPCPathPrefix       = "/v2/rpc/"
	AuthenticatePath    = "/v2/account/authenticate"
	CustomAuthPath      = "/v2/account/authenticate/custom"
	HeaderAuthorization = "Authorization"
	BearerPrefix        = "Bearer "
	ContentTypeJSON     = "application/json"
	QueryUnwrap         = "unwrap"
	QueryCreate         = "create"
)

// DefaultRequestTimeout bounds one client call when the caller sets no deadline.
const DefaultRequestTimeout = 10 * time.Second

// RPCIDs lists every registered RPC id.
var RPCIDs = []string{
	RPCClaimDaily, RPCClaimNewPlayer, RPCClaimBattlePass, RPCUnlockPremium,
	RPCAddAccountExp, RPCAddCharacterExp, RPCAddMasteryExp, RPCCompleteSession,
	RPCRedeemCoupon, RPCPurchaseOffer, RPCUpgradeItem, RPCFetchSnapshot, RPCFetchSubstructure,
}

// ClaimRequest claims one slot of a reward track or the battle pass.
type ClaimRequest struct {
	Index  int           `json:"index" validate:"gte=0"`
	Reward domain.Reward `json:"reward" validate:"-"` // empty means "whatever the catalog slot holds"
}

// ExpRequest adds exp to one progression. CharacterID is required for character and mastery exp.
type ExpRequest struct {
	CharacterID string `json:"character_id,omitempty"`
	Amount      int64  `json:"amount" validate:"gte=0"`
}

// CouponRequest redeems a coupon code.
type CouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// OfferRequest purchases a catalog offer.
type OfferRequest struct {
	OfferID string `json:"offer_id" validate:"required,max=100"`
}

// UpgradeRequest upgrades one stat of an item instance.
type UpgradeRequest struct {
	UniqueID  string `json:"unique_id" validate:"required"`
	StatIndex int    `json:"stat_index" validate:"gte=0"`
}

// SubstructureRequest fetches one part of an account.
type SubstructureRequest struct {
	Part domain.Part `json:"part" validate:"required"`
}

// Response is the envelope of every RPC. A rule rejection is a successful call with
// Success false and a reason code; transport failures surface as HTTP errors instead.
type Response struct {
	Success    bool              `json:"success"`
	ReasonCode domain.ReasonCode `json:"reason_code,omitempty"`
	Changes    *domain.Changes   `json:"changes,omitempty"`
	Balances   map[string]int64  `json:"balances,omitempty"`
	Snapshot   *domain.Snapshot  `json:"snapshot,omitempty"`
}

// AuthenticateRequest exchanges the server API key for a session bound to one account.
type AuthenticateRequest struct {
	APIKey    string `json:"api_key" validate:"required"`
	AccountID string `json:"account_id" validate:"required,max=128"`
}

// CustomAuthRequest authenticates a Nakama user by custom id.
type CustomAuthRequest struct {
	ID string `json:"id"`
}

// NakamaSession is Nakama's session response. The user id and expiry live in the token.
type NakamaSession struct {
	Created      bool   `json:"created"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthenticateResponse carries the session token.
type AuthenticateResponse struct {
	Token     string `json:"token"`
	AccountID string `json:"account_id"`
	ExpiresAt int64  `json:"expires_at"`
}
