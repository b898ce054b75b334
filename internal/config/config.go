package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// CascadeConfig is the full engine configuration. Every scoring constant
// lives here so formula revisions are config changes, not code edits.
type CascadeConfig struct {
	MomentumTarget float64            `yaml:"momentum_target"` // daily score at 100% contribution
	Signals        SignalsConfig      `yaml:"signals"`
	Chain          ChainConfig        `yaml:"chain"`
	Contribution   ContributionConfig `yaml:"contribution"`
	Momentum       MomentumConfig     `yaml:"momentum"`
	Ceiling        CeilingConfig      `yaml:"ceiling"`
	History        HistoryConfig      `yaml:"history"`
	Guard          GuardConfig        `yaml:"guard"`
}

// SignalsConfig groups per-factor scoring parameters.
type SignalsConfig struct {
	Household   HouseholdConfig   `yaml:"household"`
	Steps       StepsConfig       `yaml:"steps"`
	Sleep       SleepConfig       `yaml:"sleep"`
	Training    TrainingConfig    `yaml:"training"`
	Meals       MealsConfig       `yaml:"meals"`
	Checkin     CheckinConfig     `yaml:"checkin"`
	Measure     MeasureConfig     `yaml:"measurements"`
	Supplements SupplementsConfig `yaml:"supplements"`
	Spacing     SpacingConfig     `yaml:"spacing"`
	Synergy     SynergyConfig     `yaml:"synergy"`
	// Confidence damping: weight multiplier ranges over [min, 1.0] with
	// coverage of the last 14 days.
	ConfidenceMin  float64 `yaml:"confidence_min"`
	ConfidenceDays int     `yaml:"confidence_days"`
}

// HouseholdConfig tunes the adaptive log2 household-activity factor.
type HouseholdConfig struct {
	DefaultBaselineMin float64 `yaml:"default_baseline_min"` // population default, minutes
	MinWeight          float64 `yaml:"min_weight"`
	MaxWeight          float64 `yaml:"max_weight"`
	StreakFreeDays     int     `yaml:"streak_free_days"` // blank days before penalty
	StreakPenaltyStep  float64 `yaml:"streak_penalty_step"`
	StreakPenaltyFloor float64 `yaml:"streak_penalty_floor"`
}

// StepsConfig tunes the saturating tanh steps factor.
type StepsConfig struct {
	DefaultGoal int     `yaml:"default_goal"`
	MinWeight   float64 `yaml:"min_weight"`
	MaxWeight   float64 `yaml:"max_weight"`
	TanhScale   float64 `yaml:"tanh_scale"` // slope of tanh around the goal
}

// SleepConfig tunes onset and duration scoring.
type SleepConfig struct {
	// Onset: tanh-shaped penalty/bonus around a chronotype-adjusted optimum.
	OnsetBandEarly    string  `yaml:"onset_band_early"`    // earliest plausible optimum
	OnsetBandLate     string  `yaml:"onset_band_late"`     // latest plausible optimum
	OnsetHardFloor    string  `yaml:"onset_hard_floor"`    // past this, worst-case weight
	OnsetScaleMin     float64 `yaml:"onset_scale_min"`     // minutes per tanh unit
	OnsetMaxBonus     float64 `yaml:"onset_max_bonus"`
	OnsetMaxPenalty   float64 `yaml:"onset_max_penalty"`
	ChronoEarlyShift  int     `yaml:"chrono_early_shift"`  // minutes, applied below early median
	ChronoLateShift   int     `yaml:"chrono_late_shift"`   // minutes, applied above late median
	ChronoEarlyMedian string  `yaml:"chrono_early_median"` // median onset below this = early type
	ChronoLateMedian  string  `yaml:"chrono_late_median"`

	// Duration: Gaussian bell around a personalized optimum.
	DefaultOptimalHours float64 `yaml:"default_optimal_hours"`
	BellSigmaHours      float64 `yaml:"bell_sigma_hours"`
	UnderSleepFactor    float64 `yaml:"under_sleep_factor"` // asymmetry, >1 penalizes short sleep harder
	MaxBonus            float64 `yaml:"max_bonus"`
	MaxPenalty          float64 `yaml:"max_penalty"`
	HardMinHours        float64 `yaml:"hard_min_hours"` // below this, worst-case weight
	RecoveryExtraHours  float64 `yaml:"recovery_extra_hours"`
	RecoveryLoadMin     int     `yaml:"recovery_load_min"` // prior-day training minutes triggering extension
}

// TrainingConfig tunes the sqrt diminishing-returns load curve.
type TrainingConfig struct {
	LoadDivisor        float64            `yaml:"load_divisor"` // sqrt(load/divisor)
	Scale              float64            `yaml:"scale"`
	MinWeight          float64            `yaml:"min_weight"`
	MaxWeight          float64            `yaml:"max_weight"`
	SecondSessionMult  float64            `yaml:"second_session_mult"`
	LaterSessionMult   float64            `yaml:"later_session_mult"`
	IntensityMult      map[string]float64 `yaml:"intensity_mult"`
	StreakFreeDays     int                `yaml:"streak_free_days"`
	StreakPenaltyStep  float64            `yaml:"streak_penalty_step"`
	StreakPenaltyFloor float64            `yaml:"streak_penalty_floor"`
}

// MealsConfig tunes meal quality remapping and calorie penalties.
type MealsConfig struct {
	QualityOffset   float64 `yaml:"quality_offset"` // (q-offset)/span
	QualitySpan     float64 `yaml:"quality_span"`
	MinWeight       float64 `yaml:"min_weight"`
	MaxWeight       float64 `yaml:"max_weight"`
	ViolationWeight float64 `yaml:"violation_weight"` // hard violations force this
	FallbackWeight  float64 `yaml:"fallback_weight"`  // scorer unavailable, no violation

	BreakfastBandEnd  string  `yaml:"breakfast_band_end"` // circadian boost before this
	BreakfastMult     float64 `yaml:"breakfast_mult"`
	NearBedtimeMin    int     `yaml:"near_bedtime_min"` // minutes before chrono bedtime
	NearBedtimeMult   float64 `yaml:"near_bedtime_mult"`
	LateMealHard      string  `yaml:"late_meal_hard"`      // hard late-night threshold
	NightWindowEnd    string  `yaml:"night_window_end"`    // 00:00..this counts as night eating
	HarmThreshold     float64 `yaml:"harm_threshold"`      // product harm score flagging
	CaloriePenaltyMax float64 `yaml:"calorie_penalty_max"` // sigmoid amplitude

	// Goal-mode thresholds: cumulative/target ratio at which the penalty
	// sigmoid engages.
	DeficitPenaltyAt     float64 `yaml:"deficit_penalty_at"`
	MaintenancePenaltyAt float64 `yaml:"maintenance_penalty_at"`
	BulkPenaltyAt        float64 `yaml:"bulk_penalty_at"`
	PenaltySlope         float64 `yaml:"penalty_slope"` // sigmoid steepness per ratio unit
}

// CheckinConfig tunes the morning weight checkin factor.
type CheckinConfig struct {
	Base            float64 `yaml:"base"`
	StreakBonusStep float64 `yaml:"streak_bonus_step"`
	StreakBonusMax  float64 `yaml:"streak_bonus_max"`
	StabilityBonus  float64 `yaml:"stability_bonus"`
	StabilityBandKg float64 `yaml:"stability_band_kg"`
}

// MeasureConfig tunes body-measurement scoring.
type MeasureConfig struct {
	FullWeight      float64 `yaml:"full_weight"`
	ExpectedFields  int     `yaml:"expected_fields"`
	RecentWindow    int     `yaml:"recent_window"` // measured within this many days = no extra credit
	RecentDiscount  float64 `yaml:"recent_discount"`
	StalePenalty    float64 `yaml:"stale_penalty"`      // >7 days
	VeryStalePenalty float64 `yaml:"very_stale_penalty"` // >14 days
	StaleDays       int     `yaml:"stale_days"`
	VeryStaleDays   int     `yaml:"very_stale_days"`
}

// SupplementsConfig tunes the adherence factor.
type SupplementsConfig struct {
	FullWeight      float64 `yaml:"full_weight"`
	PoorWeight      float64 `yaml:"poor_weight"`
	StreakBonusStep float64 `yaml:"streak_bonus_step"`
	StreakBonusMax  float64 `yaml:"streak_bonus_max"`
}

// SpacingConfig tunes the inter-meal spacing (insulin wave) factor.
type SpacingConfig struct {
	OverlapGapMin      int     `yaml:"overlap_gap_min"` // gaps below this overlap insulin waves
	OverlapPenaltyMax  float64 `yaml:"overlap_penalty_max"`
	OverlapSlope       float64 `yaml:"overlap_slope"` // sigmoid steepness per minute
	NightFastTargetHrs float64 `yaml:"night_fast_target_hrs"`
	NightFastBonusMax  float64 `yaml:"night_fast_bonus_max"`
	PostTrainingMin    int     `yaml:"post_training_min"` // meal within this window after training
	PostTrainingBonus  float64 `yaml:"post_training_bonus"`
}

// SynergyConfig lists cross-factor bonuses.
type SynergyConfig struct {
	Cap               float64 `yaml:"cap"`
	RestRecovery      float64 `yaml:"rest_recovery"`       // rest day + adequate sleep + no overeating
	QualityRhythm     float64 `yaml:"quality_rhythm"`      // high-quality meals + good spacing
	MorningDiscipline float64 `yaml:"morning_discipline"`  // checkin + early activity
	FullStack         float64 `yaml:"full_stack"`          // training + sleep + steps all positive
}

// ChainConfig sets the soft-degradation penalty tiers.
type ChainConfig struct {
	MildThreshold   float64 `yaml:"mild_threshold"`   // weight >= this => penalty 1
	SevereThreshold float64 `yaml:"severe_threshold"` // weight < this => penalty 3
}

// ContributionConfig drives the DCS normalizer and its overrides.
type ContributionConfig struct {
	Floor float64 `yaml:"floor"` // default clamp floor
	Cap   float64 `yaml:"cap"`

	// Critical violations (highest precedence).
	CriticalComboDCS   float64 `yaml:"critical_combo_dcs"`   // harmful night eating + calorie blowout
	HarmfulNightDCS    float64 `yaml:"harmful_night_dcs"`
	CalorieBlowoutDCS  float64 `yaml:"calorie_blowout_dcs"`
	BlowoutRatio       float64 `yaml:"blowout_ratio"` // consumed/target triggering blowout

	// Goal-aware deficit overrides.
	DeficitSevereRatio float64 `yaml:"deficit_severe_ratio"`
	DeficitSevereDCS   float64 `yaml:"deficit_severe_dcs"`
	DeficitCriticalOver float64 `yaml:"deficit_critical_over"`
	DeficitCriticalDCS float64 `yaml:"deficit_critical_dcs"`
	DeficitTargetMax   float64 `yaml:"deficit_target_max"`
	DeficitTightFloor  float64 `yaml:"deficit_tight_floor"`
	TrainingTolerance  float64 `yaml:"training_tolerance"` // extra allowance on training days

	// Bulk exemption.
	BulkExemptRatio float64 `yaml:"bulk_exempt_ratio"`
}

// MomentumConfig drives the decayed CRS aggregation.
type MomentumConfig struct {
	WindowDays    int     `yaml:"window_days"`
	DecayAlpha    float64 `yaml:"decay_alpha"`
	TodayBoostMax float64 `yaml:"today_boost_max"`
	TrendDelta    float64 `yaml:"trend_delta"`
	PeakThreshold float64 `yaml:"peak_threshold"`

	// State thresholds on CRS.
	StrongAt   float64 `yaml:"strong_at"`
	GrowingAt  float64 `yaml:"growing_at"`
	BuildingAt float64 `yaml:"building_at"`
	RecoveryAt float64 `yaml:"recovery_at"`
}

// CeilingConfig drives the personalized ceiling calibration.
type CeilingConfig struct {
	Base             float64 `yaml:"base"`
	ConsistencyCap   float64 `yaml:"consistency_cap"`
	ConsistencyMinN  int     `yaml:"consistency_min_n"`
	DiversityPerCat  float64 `yaml:"diversity_per_cat"` // total bonus at all categories active
	CategoryCount    int     `yaml:"category_count"`
	CategoryMinDays  int     `yaml:"category_min_days"`
	DepthStep        float64 `yaml:"depth_step"`
	DepthStepDays    int     `yaml:"depth_step_days"`
	DepthMaxSteps    int     `yaml:"depth_max_steps"`
	WindowDays       int     `yaml:"window_days"`
}

// HistoryConfig drives retention and schema versioning.
type HistoryConfig struct {
	SchemaVersion string `yaml:"schema_version"`
	RetentionDays int    `yaml:"retention_days"`
	BackfillDays  int    `yaml:"backfill_days"`
}

// GuardConfig drives the readiness guard.
type GuardConfig struct {
	ReadyTimeoutSec int `yaml:"ready_timeout_sec"`
}

// Default returns production defaults. All values mirror the shipped
// cascade scoring revision; the estimator calibration file may override the
// approximate ones.
func Default() *CascadeConfig {
	return &CascadeConfig{
		MomentumTarget: 10.0,
		Signals: SignalsConfig{
			Household: HouseholdConfig{
				DefaultBaselineMin: 45,
				MinWeight:          -0.3,
				MaxWeight:          1.0,
				StreakFreeDays:     2,
				StreakPenaltyStep:  -0.1,
				StreakPenaltyFloor: -0.3,
			},
			Steps: StepsConfig{
				DefaultGoal: 8000,
				MinWeight:   -0.3,
				MaxWeight:   1.0,
				TanhScale:   1.5,
			},
			Sleep: SleepConfig{
				OnsetBandEarly:      "21:30",
				OnsetBandLate:       "01:30",
				OnsetHardFloor:      "02:00",
				OnsetScaleMin:       90,
				OnsetMaxBonus:       1.0,
				OnsetMaxPenalty:     -2.0,
				ChronoEarlyShift:    -30,
				ChronoLateShift:     30,
				ChronoEarlyMedian:   "22:30",
				ChronoLateMedian:    "00:00",
				DefaultOptimalHours: 7.75,
				BellSigmaHours:      1.1,
				UnderSleepFactor:    1.3,
				MaxBonus:            1.0,
				MaxPenalty:          -1.5,
				HardMinHours:        5.0,
				RecoveryExtraHours:  0.5,
				RecoveryLoadMin:     60,
			},
			Training: TrainingConfig{
				LoadDivisor:       30,
				Scale:             1.5,
				MinWeight:         0.3,
				MaxWeight:         2.5,
				SecondSessionMult: 0.5,
				LaterSessionMult:  0.25,
				IntensityMult: map[string]float64{
					"cardio":     1.0,
					"strength":   1.1,
					"hiit":       1.3,
					"yoga":       0.7,
					"stretching": 0.6,
				},
				StreakFreeDays:     2,
				StreakPenaltyStep:  -0.15,
				StreakPenaltyFloor: -0.5,
			},
			Meals: MealsConfig{
				QualityOffset:        40,
				QualitySpan:          40,
				MinWeight:            -1.0,
				MaxWeight:            1.5,
				ViolationWeight:      -1.0,
				FallbackWeight:       1.0,
				BreakfastBandEnd:     "11:00",
				BreakfastMult:        1.15,
				NearBedtimeMin:       120,
				NearBedtimeMult:      0.7,
				LateMealHard:         "23:00",
				NightWindowEnd:       "06:00",
				HarmThreshold:        7,
				CaloriePenaltyMax:    1.0,
				DeficitPenaltyAt:     1.0,
				MaintenancePenaltyAt: 1.1,
				BulkPenaltyAt:        1.3,
				PenaltySlope:         8,
			},
			Checkin: CheckinConfig{
				Base:            0.5,
				StreakBonusStep: 0.05,
				StreakBonusMax:  0.3,
				StabilityBonus:  0.2,
				StabilityBandKg: 0.3,
			},
			Measure: MeasureConfig{
				FullWeight:       1.0,
				ExpectedFields:   5,
				RecentWindow:     3,
				RecentDiscount:   0.5,
				StalePenalty:     -0.1,
				VeryStalePenalty: -0.3,
				StaleDays:        7,
				VeryStaleDays:    14,
			},
			Supplements: SupplementsConfig{
				FullWeight:      0.5,
				PoorWeight:      -0.2,
				StreakBonusStep: 0.05,
				StreakBonusMax:  0.2,
			},
			Spacing: SpacingConfig{
				OverlapGapMin:      120,
				OverlapPenaltyMax:  1.5,
				OverlapSlope:       0.05,
				NightFastTargetHrs: 12,
				NightFastBonusMax:  0.5,
				PostTrainingMin:    90,
				PostTrainingBonus:  0.2,
			},
			Synergy: SynergyConfig{
				Cap:               1.3,
				RestRecovery:      0.4,
				QualityRhythm:     0.4,
				MorningDiscipline: 0.3,
				FullStack:         0.5,
			},
			ConfidenceMin:  0.1,
			ConfidenceDays: 14,
		},
		Chain: ChainConfig{
			MildThreshold:   -0.5,
			SevereThreshold: -1.5,
		},
		Contribution: ContributionConfig{
			Floor:               -0.3,
			Cap:                 1.0,
			CriticalComboDCS:    -1.0,
			HarmfulNightDCS:     -0.8,
			CalorieBlowoutDCS:   -0.6,
			BlowoutRatio:        1.5,
			DeficitSevereRatio:  1.5,
			DeficitSevereDCS:    -0.7,
			DeficitCriticalOver: 1.2,
			DeficitCriticalDCS:  -0.5,
			DeficitTargetMax:    1.05,
			DeficitTightFloor:   -0.4,
			TrainingTolerance:   1.2,
			BulkExemptRatio:     1.8,
		},
		Momentum: MomentumConfig{
			WindowDays:    30,
			DecayAlpha:    0.95,
			TodayBoostMax: 0.03,
			TrendDelta:    0.05,
			PeakThreshold: 0.5,
			StrongAt:      0.75,
			GrowingAt:     0.45,
			BuildingAt:    0.20,
			RecoveryAt:    0.05,
		},
		Ceiling: CeilingConfig{
			Base:            0.65,
			ConsistencyCap:  0.3,
			ConsistencyMinN: 5,
			DiversityPerCat: 0.15,
			CategoryCount:   9,
			CategoryMinDays: 3,
			DepthStep:       0.03,
			DepthStepDays:   7,
			DepthMaxSteps:   4,
			WindowDays:      30,
		},
		History: HistoryConfig{
			SchemaVersion: "v3.5.1",
			RetentionDays: 35,
			BackfillDays:  30,
		},
		Guard: GuardConfig{
			ReadyTimeoutSec: 5,
		},
	}
}

// Load reads a YAML config file and overlays it on defaults.
func Load(path string) (*CascadeConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse cascade config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configs that would break documented output bounds.
func (c *CascadeConfig) Validate() error {
	if c.MomentumTarget <= 0 {
		return fmt.Errorf("momentum_target must be positive, got %v", c.MomentumTarget)
	}
	if c.Momentum.DecayAlpha <= 0 || c.Momentum.DecayAlpha >= 1 {
		return fmt.Errorf("decay_alpha must be in (0,1), got %v", c.Momentum.DecayAlpha)
	}
	if c.Momentum.WindowDays < 1 {
		return fmt.Errorf("window_days must be >= 1, got %d", c.Momentum.WindowDays)
	}
	if c.Contribution.Floor >= c.Contribution.Cap {
		return fmt.Errorf("contribution floor %v must be below cap %v", c.Contribution.Floor, c.Contribution.Cap)
	}
	if c.History.RetentionDays < c.Momentum.WindowDays {
		return fmt.Errorf("retention %d shorter than momentum window %d", c.History.RetentionDays, c.Momentum.WindowDays)
	}
	return nil
}
