package domain

import "time"

// Hospital is a health facility reporting gas consumption.
type Hospital struct {
	ID               int        `json:"id"`
	Nombre           string     `json:"nombre"`
	Codigo           string     `json:"codigo"`
	Tipo             string     `json:"tipo"`
	Ciudad           string     `json:"ciudad"`
	Departamento     string     `json:"departamento"`
	Direccion        string     `json:"direccion,omitempty"`
	ContactoNombre   string     `json:"contacto_nombre,omitempty"`
	ContactoTelefono string     `json:"contacto_telefono,omitempty"`
	ContactoEmail    string     `json:"contacto_email,omitempty"`
	Estado           bool       `json:"estado"`
	RegionSanitaria  string     `json:"region_sanitaria,omitempty"`
	NivelAtencion    string     `json:"nivel_atencion,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// Gas is a medicinal gas in the catalogue.
type Gas struct {
	ID             int        `json:"id"`
	Nombre         string     `json:"nombre"`
	Codigo         string     `json:"codigo"`
	Descripcion    string     `json:"descripcion,omitempty"`
	UnidadBase     string     `json:"unidad_base"`
	FormulaQuimica string     `json:"formula_quimica,omitempty"`
	Estado         bool       `json:"estado"`
	EsCritico      bool       `json:"es_critico"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Consumption is one consumption record ("consumo") of a gas by a hospital.
// Dates are kept as the backend's YYYY-MM-DD strings.
type Consumption struct {
	ID              int        `json:"id"`
	HospitalID      int        `json:"hospital_id"`
	GasID           int        `json:"gas_id"`
	UsuarioID       int        `json:"usuario_id"`
	FechaInicio     string     `json:"fecha_inicio"`
	FechaFin        string     `json:"fecha_fin"`
	ModoSuministro  string     `json:"modo_suministro"`
	UnidadMedida    string     `json:"unidad_medida"`
	Cantidad        float64    `json:"cantidad"`
	Observaciones   string     `json:"observaciones,omitempty"`
	Validado        bool       `json:"validado"`
	ValidadoPor     *int       `json:"validado_por,omitempty"`
	FechaValidacion *time.Time `json:"fecha_validacion,omitempty"`
	Hospital        *Hospital  `json:"hospital,omitempty"`
	Gas             *Gas       `json:"gas,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// AuditEntry is one row of the backend audit trail.
type AuditEntry struct {
	ID        int       `json:"id"`
	UsuarioID *int      `json:"usuario_id,omitempty"`
	Accion    string    `json:"accion"`
	Detalle   string    `json:"detalle,omitempty"`
	IP        string    `json:"ip,omitempty"`
	FechaHora time.Time `json:"fecha_hora"`
}

// ReportFilter is the JSON body accepted by the report endpoints.
type ReportFilter struct {
	FechaInicio    string `json:"fecha_inicio,omitempty"`
	FechaFin       string `json:"fecha_fin,omitempty"`
	HospitalID     *int   `json:"hospital_id,omitempty"`
	GasID          *int   `json:"gas_id,omitempty"`
	ModoSuministro string `json:"modo_suministro,omitempty"`
	Departamento   string `json:"departamento,omitempty"`
}

// DownloadArtifact is a report payload ready to be saved locally.
type DownloadArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
	// Path is set once the artifact has been written to disk.
	Path string
}

// Size is the number of bytes received from the server.
func (a *DownloadArtifact) Size() int { return len(a.Data) }
