package strategy

type Stage string

type Event string

// Plan lifecycle. The stage is persisted before and after each order leg
// so a crash between the two legs is detectable on restart.
const (
	StageCreated         Stage = "created"
	StageInvestSubmitted Stage = "invest_submitted"
	StageHedgeSubmitted  Stage = "hedge_submitted"
	StageSettled         Stage = "settled"
	StageUnwound         Stage = "unwound"
)

const (
	EventInvestSubmitted Event = "INVEST_SUBMITTED"
	EventHedgeSubmitted  Event = "HEDGE_SUBMITTED"
	EventSettled         Event = "SETTLED"
	EventUnwound         Event = "UNWOUND"
)
