package domain

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Signal is the output of one strategy function: an action recommendation
// with a confidence in [0, 1] and the reasons that produced it.
type Signal struct {
	Strategy   string   `json:"strategy"`
	Action     Action   `json:"action"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// Hold returns a neutral signal for the given strategy.
func Hold(strategy string, reasons ...string) Signal {
	return Signal{Strategy: strategy, Action: ActionHold, Confidence: 0, Reasons: reasons}
}
