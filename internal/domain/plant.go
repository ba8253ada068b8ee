package domain

// Semiconductor availability statuses reported by plant telemetry.
const (
	SemiconductorAvailable = "Available"
	SemiconductorDelayed   = "Delayed"
	SemiconductorShortage  = "Shortage"
	SemiconductorCritical  = "Critical"
)

// AlertMaintenanceAlert is the telemetry alert status used as the
// breakdown-classifier training label.
const AlertMaintenanceAlert = "Maintenance_Alert"

// PlantRecord is one row of plant telemetry for a line/shift.
type PlantRecord struct {
	Line               string   `json:"assemblyLine" yaml:"assembly_line"`
	Shift              string   `json:"shift" yaml:"shift"`
	Uptime             float64  `json:"machineUptimePct" yaml:"machine_uptime_pct"`
	Inventory          float64  `json:"inventoryStatusPct" yaml:"inventory_status_pct"`
	WorkerAvailability float64  `json:"workerAvailabilityPct" yaml:"worker_availability_pct"`
	DefectRate         float64  `json:"defectRatePct" yaml:"defect_rate_pct"`
	Energy             float64  `json:"energyConsumptionKwh" yaml:"energy_consumption_kwh"`
	Demand             float64  `json:"demandUnits" yaml:"demand_units"`
	Semiconductor      string   `json:"semiconductorAvailability,omitempty" yaml:"semiconductor_availability"`
	AlertStatus        string   `json:"alertStatus,omitempty" yaml:"alert_status"`
	KPIImpact          *float64 `json:"predictedKpiImpactPct,omitempty" yaml:"predicted_kpi_impact_pct"`
}

// LineMaster holds master data for one assembly line, keyed by master name
// (e.g. "HighRange_Line1").
type LineMaster struct {
	DailyCapacity float64 `json:"dailyCapacity"`
	Utilization   float64 `json:"utilizationPct"`
	OEE           float64 `json:"oeePct"`
	MTTRHours     float64 `json:"mttrHours"`
}

// ShiftMaster holds workforce master data for one shift.
type ShiftMaster struct {
	Workers          int     `json:"workers"`
	MaxOvertimeHours float64 `json:"maxOvertimeHours"`
}

// Supplier is one supplier master record.
type Supplier struct {
	Name         string  `json:"name"`
	Reliability  float64 `json:"reliabilityPct"`
	LeadTimeDays int     `json:"leadTimeDays"`
}

// PlantEvent is a free-text operational event attached to the scenario.
type PlantEvent struct {
	Type         string `json:"type,omitempty"`
	Description  string `json:"description"`
	ImpactAreas  string `json:"impactAreas,omitempty"`
	AffectedLine string `json:"affectedLine,omitempty"`
}

// ScenarioImpact carries scenario-specific derived numbers computed by the
// upstream context builder for breakdown scenarios. Optional: a nil pointer
// means the scenario has no active breakdown.
type ScenarioImpact struct {
	AffectedLine      string   `json:"affectedLine,omitempty"`
	MTTRHours         float64  `json:"mttrHours,omitempty"`
	CapacityLost      float64  `json:"capacityLost,omitempty"`
	OEEUsed           float64  `json:"oeeUsedPct,omitempty"`
	UtilizationUsed   float64  `json:"utilizationUsedPct,omitempty"`
	UnitsLost         *float64 `json:"unitsLostDuringOutage,omitempty"`
	RecoveryDays      float64  `json:"recoveryDays,omitempty"`
	WorkaroundOptions []string `json:"workaroundOptions,omitempty"`
}

// MTTRSensitivity lists downstream order exposure for the outage window.
type MTTRSensitivity struct {
	OrdersAtRisk []string `json:"ordersAtRisk,omitempty"`
}

// DemandSummary is the aggregated demand picture from the context builder.
type DemandSummary struct {
	AverageUnits float64 `json:"averageUnits"`
	PeakUnits    float64 `json:"peakUnits"`
}

// AnalysisContext is the aggregated master data plus scenario-specific
// derived fields assembled by the upstream context builder. The core treats
// it as already validated; nil optional blocks mean "not applicable".
type AnalysisContext struct {
	Scenario        string                 `json:"scenario"`
	LineMaster      map[string]LineMaster  `json:"lineMaster,omitempty"`
	ShiftMaster     map[string]ShiftMaster `json:"shiftMaster,omitempty"`
	Suppliers       []Supplier             `json:"suppliers,omitempty"`
	Events          []PlantEvent           `json:"events,omitempty"`
	ScenarioImpact  *ScenarioImpact        `json:"scenarioImpact,omitempty"`
	MTTRSensitivity *MTTRSensitivity       `json:"mttrSensitivity,omitempty"`
	Demand          *DemandSummary         `json:"demand,omitempty"`
}

// Recommendation is one record produced by the external recommender.
type Recommendation struct {
	Action    string `json:"action"`
	Priority  string `json:"priority,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
	Agent     string `json:"sourceAgent,omitempty"`
	KPIImpact string `json:"expectedKpiImpact,omitempty"`
}
