package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID    = "run_id"
	FieldPersonID = "person_id"
	FieldGroupID  = "group_id"
	FieldDomainID = "domain_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Simulation fields
	FieldGroupSpec  = "group_spec"
	FieldStep       = "step"
	FieldSimTime    = "sim_time"
	FieldDeltaTime  = "delta_time"
	FieldSymptomTag = "symptom_tag"
	FieldInfections = "infections"
)
