package domain

// Currency identifiers - stable code identifiers used as balance keys
const (
	CurrencyGold   = "gold"
	CurrencyGems   = "gems"
	CurrencyTicket = "ticket"
)

// RewardKind identifies what a reward descriptor grants.
type RewardKind string

const (
	RewardCurrency  RewardKind = "currency"
	RewardCharacter RewardKind = "character"
	RewardIcon      RewardKind = "icon"
	RewardFrame     RewardKind = "frame"
	RewardShopItem  RewardKind = "shop_item"
	RewardItem      RewardKind = "item" // individually leveled inventory instance
)

// TrackKind identifies a date-gated reward track.
type TrackKind string

const (
	TrackDaily     TrackKind = "daily"      // cyclic, resets lazily once fully claimed
	TrackNewPlayer TrackKind = "new_player" // one pass only
)

// TrackKinds lists every reward track provisioned for an account.
var TrackKinds = []TrackKind{TrackDaily, TrackNewPlayer}

// Cyclic reports whether the track restarts after being fully claimed.
func (k TrackKind) Cyclic() bool {
	return k == TrackDaily
}

// LevelAxis identifies which progression a LevelProgress belongs to.
type LevelAxis string

const (
	AxisAccount    LevelAxis = "account"
	AxisCharacter  LevelAxis = "character"
	AxisMastery    LevelAxis = "mastery"
	AxisBattlePass LevelAxis = "battle_pass"
)

// QuestKind distinguishes quests that complete once from quests that cycle.
type QuestKind string

const (
	QuestOneTime    QuestKind = "one_time"
	QuestRepeatable QuestKind = "repeatable"
)

// MaxCompactClaims is the widest claimed set representable as a bitmask.
const MaxCompactClaims = 64
