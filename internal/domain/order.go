package domain

// Stage is the pipeline column an order currently sits in.
type Stage string

const (
	StageNew       Stage = "NEW"
	StageEscrow    Stage = "ESCROW"
	StageCompleted Stage = "COMPLETED"
)

// ProgressComplete is the progress value at which an escrowed order settles.
const ProgressComplete = 100

// Display labels written into Order.Time.
const (
	TimeJustNow     = "just now"
	TimeJustSettled = "just settled"
)

// Order represents one simulated settlement.
// Every field except Stage and Progress is a display string.
type Order struct {
	ID           string `json:"id"`
	Amount       string `json:"amount"` // e.g. "1,250 USDT"
	Rate         string `json:"rate"`   // e.g. "3.67 AED"
	Fiat         string `json:"fiat"`   // Amount x Rate, e.g. "4,587.50 AED"
	UserName     string `json:"user_name"`
	AvatarGlyph  string `json:"avatar"`
	CountryGlyph string `json:"country"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	Time         string `json:"time"`
	Stage        Stage  `json:"stage"`
	Progress     int    `json:"-"` // Meaningful only in StageEscrow
}

// HasProgress reports whether Progress carries a value for the current stage.
func (o *Order) HasProgress() bool {
	return o.Stage == StageEscrow
}

// DisplayProgress returns the progress bar value, or nil for New orders.
// Completed orders are implicitly at 100.
func (o *Order) DisplayProgress() *int {
	switch o.Stage {
	case StageEscrow:
		p := o.Progress
		return &p
	case StageCompleted:
		p := ProgressComplete
		return &p
	default:
		return nil
	}
}

// IsSettled checks if the order reached the terminal stage.
func (o *Order) IsSettled() bool {
	return o.Stage == StageCompleted
}
