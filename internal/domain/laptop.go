package domain

// Laptop is a single catalog listing as returned by the search endpoint.
type Laptop struct {
	ID               string   `json:"id"`
	UserID           string   `json:"userId,omitempty"`
	Title            string   `json:"title,omitempty"`
	Brand            string   `json:"brand"`
	Model            string   `json:"model"`
	Price            float64  `json:"price"`
	ShortDesc        string   `json:"shortDesc,omitempty"`
	ProcessorBrand   string   `json:"processorBrand,omitempty"`
	ProcessorModel   string   `json:"processorModel,omitempty"`
	GPUBrand         string   `json:"gpuBrand,omitempty"`
	GPUModel         string   `json:"gpuModel,omitempty"`
	RAM              string   `json:"ram,omitempty"`
	RAMType          string   `json:"ramType,omitempty"`
	StorageType      string   `json:"storageType,omitempty"`
	StorageCapacity  string   `json:"storageCapacity,omitempty"`
	ScreenSize       string   `json:"screenSize,omitempty"`
	ScreenResolution string   `json:"screenResolution,omitempty"`
	RefreshRate      string   `json:"refreshRate,omitempty"`
	StockStatus      string   `json:"stockStatus,omitempty"`
	Year             int      `json:"year,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Images           []string `json:"images,omitempty"`

	// Plain-text rendering of ShortDesc, filled by the response parser.
	Summary string `json:"summary,omitempty"`
}

// DisplayName prefers the listing title and falls back to brand and model.
func (l Laptop) DisplayName() string {
	if l.Title != "" {
		return l.Title
	}
	if l.Brand == "" {
		return l.Model
	}
	if l.Model == "" {
		return l.Brand
	}
	return l.Brand + " " + l.Model
}
