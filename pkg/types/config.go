package types

// EconomicParams are the inputs of value discounting.
type EconomicParams struct {
	// DiscountRate is the annual discount rate as a fraction (0.08 = 8%).
	DiscountRate float64 `json:"discount_rate" yaml:"discount_rate"`

	// ExtractionRate is the vertical extraction rate in metres per year.
	ExtractionRate float64 `json:"extraction_rate" yaml:"extraction_rate"`

	// InvestmentCost is the development cost a column must pay back.
	InvestmentCost float64 `json:"investment_cost" yaml:"investment_cost"`
}

// EconomicsConfig holds the economic settings as entered by the user.
type EconomicsConfig struct {
	// DiscountPercent is the annual discount rate in percent.
	DiscountPercent float64 `json:"discount_percent" yaml:"discount_percent"`

	// ExtractionRate is the vertical extraction rate in m/year.
	ExtractionRate float64 `json:"extraction_rate" yaml:"extraction_rate"`

	// DrawpointArea is the area served by one drawpoint in m².
	DrawpointArea float64 `json:"drawpoint_area" yaml:"drawpoint_area"`

	// DrawpointCost is the drawpoint opening cost in $/m².
	DrawpointCost float64 `json:"drawpoint_cost" yaml:"drawpoint_cost"`

	// InvestmentCost overrides DrawpointArea × DrawpointCost when non-zero.
	InvestmentCost float64 `json:"investment_cost,omitempty" yaml:"investment_cost,omitempty"`
}

// Params converts the user-facing settings into discounting inputs.
func (c EconomicsConfig) Params() EconomicParams {
	inv := c.InvestmentCost
	if inv == 0 {
		inv = c.DrawpointArea * c.DrawpointCost
	}
	return EconomicParams{
		DiscountRate:   c.DiscountPercent / 100,
		ExtractionRate: c.ExtractionRate,
		InvestmentCost: inv,
	}
}

// GeometryParams are the geometric constraints of the cave envelope.
type GeometryParams struct {
	// MinHeight is the minimum column height in metres above the level.
	MinHeight float64 `json:"min_height" yaml:"min_height"`

	// MaxHeight is the maximum column height in metres above the level.
	MaxHeight float64 `json:"max_height" yaml:"max_height"`

	// Slope is the angle of draw in degrees.
	Slope float64 `json:"slope" yaml:"slope"`
}

// IngestConfig selects and parses the block model file.
type IngestConfig struct {
	// Path is the block model file (.csv, .txt, .dat or .xlsx).
	Path string `json:"path" yaml:"path"`

	// Delimiter separates columns in text files (default ",").
	Delimiter string `json:"delimiter" yaml:"delimiter"`

	// Header reports whether the first row holds column names.
	Header bool `json:"header" yaml:"header"`

	// Sheet selects the XLSX worksheet. Empty means the first sheet.
	Sheet string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
}

// ModelConfig binds the block table columns.
type ModelConfig struct {
	Axes AxisNames `json:"axes" yaml:"axes"`

	// Profit names the column holding the block profit.
	Profit string `json:"profit" yaml:"profit"`
}

// OutputConfig controls where reports are written.
type OutputConfig struct {
	// Dir is the base directory for reports (default "output").
	Dir string `json:"dir" yaml:"dir"`

	// Plots enables PNG and HTML plot output.
	Plots bool `json:"plots" yaml:"plots"`
}

// ArchiveConfig controls the run archive.
type ArchiveConfig struct {
	// Dir contains the archive database (default "archive").
	Dir string `json:"dir" yaml:"dir"`

	// Disabled skips recording runs.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// PlanConfig groups all settings of a planning run.
type PlanConfig struct {
	Ingest    IngestConfig    `json:"ingest" yaml:"ingest"`
	Model     ModelConfig     `json:"model" yaml:"model"`
	Economics EconomicsConfig `json:"economics" yaml:"economics"`
	Geometry  GeometryParams  `json:"geometry" yaml:"geometry"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive"`

	// Workers bounds parallel level evaluation. Zero uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}
