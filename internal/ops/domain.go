package ops

import "time"

// Position is a WGS84 coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Mission is an operational tasking.
type Mission struct {
	ID        string    `json:"id"`
	Codename  string    `json:"codename"`
	Objective string    `json:"objective"`
	Priority  string    `json:"priority"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Agent is a deployed field unit.
type Agent struct {
	ID       string   `json:"id"`
	Callsign string   `json:"callsign"`
	Unit     string   `json:"unit"`
	Status   string   `json:"status"`
	Position Position `json:"position"`
}

// TerrainSector is a tactical terrain assessment.
type TerrainSector struct {
	Sector      string   `json:"sector"`
	Terrain     string   `json:"terrain"`
	ThreatLevel string   `json:"threatLevel"`
	Center      Position `json:"center"`
}
