package domain

import "fmt"

// Profile bounds and defaults.
const (
	MinRiskThreshold = 0
	MaxRiskThreshold = 100
	MinCashoutTarget = 0
	MaxCashoutTarget = 300

	DefaultRiskThreshold = 50
	DefaultCashoutTarget = 70
)

// UserProfile holds the two preferences a user controls.
// Corresponds to users table.
type UserProfile struct {
	ID            int64 // PRIMARY KEY, Telegram user id
	RiskThreshold int   // 0..100, eligible when threshold <= score
	CashoutTarget int   // 0..300, percent gain at which the user exits
	CreatedAt     int64 // Unix ms
	UpdatedAt     int64 // Unix ms
}

// NewUserProfile returns a profile with default preferences.
func NewUserProfile(id int64, nowMs int64) *UserProfile {
	return &UserProfile{
		ID:            id,
		RiskThreshold: DefaultRiskThreshold,
		CashoutTarget: DefaultCashoutTarget,
		CreatedAt:     nowMs,
		UpdatedAt:     nowMs,
	}
}

// Validate checks that both preferences are within bounds.
func (u *UserProfile) Validate() error {
	if err := ValidateRiskThreshold(u.RiskThreshold); err != nil {
		return err
	}
	return ValidateCashoutTarget(u.CashoutTarget)
}

// ValidateRiskThreshold checks the 0..100 bound.
func ValidateRiskThreshold(v int) error {
	if v < MinRiskThreshold || v > MaxRiskThreshold {
		return fmt.Errorf("risk threshold must be %d-%d, got %d", MinRiskThreshold, MaxRiskThreshold, v)
	}
	return nil
}

// ValidateCashoutTarget checks the 0..300 bound.
func ValidateCashoutTarget(v int) error {
	if v < MinCashoutTarget || v > MaxCashoutTarget {
		return fmt.Errorf("cash-out target must be %d-%d, got %d", MinCashoutTarget, MaxCashoutTarget, v)
	}
	return nil
}

// Contributor snapshots a user's preferences at buy time.
// Later profile edits never change an existing contributor.
type Contributor struct {
	UserID        int64 `json:"user_id"`
	RiskThreshold int   `json:"risk_threshold"`
	CashoutTarget int   `json:"cashout_target"`
}

// ContributorOf copies the relevant profile fields.
func ContributorOf(u *UserProfile) Contributor {
	return Contributor{
		UserID:        u.ID,
		RiskThreshold: u.RiskThreshold,
		CashoutTarget: u.CashoutTarget,
	}
}
