package models

import "time"

// Control modes accepted for classification.
const (
	ModeGDRIQ = 4  // GDR I/Q
	ModeSELAP = 64 // SELAP, introduced by the C100 firmware upgrade
)

// Archiver deployments holding control-mode history.
const (
	DeploymentOps     = "ops"
	DeploymentHistory = "history"
)

// CavityMode is one recorded control-mode sample for a cavity.
type CavityMode struct {
	Zone       string    `db:"zone"        json:"zone"`
	Cavity     int       `db:"cavity"      json:"cavity"`
	Deployment string    `db:"deployment"  json:"deployment"`
	Mode       int       `db:"mode"        json:"mode"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
