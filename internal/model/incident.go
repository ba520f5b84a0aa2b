// Package model defines the record types shared by the ingestion, aggregation and export stages.
package model

// Tag is the risk classification assigned to a crime label.
type Tag string

const (
	TagNone     Tag = ""
	TagRobbery  Tag = "robo"
	TagAssault  Tag = "asalto"
	TagHomicide Tag = "homicidio"
)

// DefaultTags lists the built-in tags in report order.
var DefaultTags = []Tag{TagRobbery, TagAssault, TagHomicide}

// String returns the wire value, or "none" for TagNone.
func (t Tag) String() string {
	if t == TagNone {
		return "none"
	}
	return string(t)
}

// Label returns a human-readable plural heading for the tag.
func (t Tag) Label() string {
	switch t {
	case TagRobbery:
		return "Robos (sin violencia)"
	case TagAssault:
		return "Asaltos (con violencia)"
	case TagHomicide:
		return "Homicidios"
	case TagNone:
		return "Sin clasificar"
	default:
		return string(t)
	}
}

// RawRecord is one row of the investigation-case dataset. All fields are kept
// as text exactly as read; columns absent from the source are empty.
type RawRecord struct {
	Crime        string `json:"delito"`
	Category     string `json:"categoria_delito"`
	Municipality string `json:"alcaldia_hecho"`
	Neighborhood string `json:"colonia_hecho"`
	DateOccurred string `json:"fecha_hecho"`
	TimeOccurred string `json:"hora_hecho"`
	Longitude    string `json:"longitud"`
	Latitude     string `json:"latitud"`
}

// DetailRecord is the projection kept for records that pass every filter of
// the classified subset (valid coordinates, valid date at or after the
// threshold year, non-empty tag).
type DetailRecord struct {
	Tag          Tag     `json:"tipo" csv:"tipo"`
	Severe       bool    `json:"es_grave" csv:"es_grave"`
	Crime        string  `json:"delito" csv:"delito"`
	Category     string  `json:"categoria" csv:"categoria"`
	Municipality string  `json:"alcaldia" csv:"alcaldia"`
	Neighborhood string  `json:"colonia" csv:"colonia"`
	Date         string  `json:"fecha" csv:"fecha"`
	Time         string  `json:"hora" csv:"hora"`
	Year         int     `json:"año" csv:"anio"`
	Month        int     `json:"mes" csv:"mes"`
	Longitude    float64 `json:"longitud" csv:"longitud"`
	Latitude     float64 `json:"latitud" csv:"latitud"`
}
