package domain

// FilterCategory names one filterable dimension of the laptop catalog.
type FilterCategory string

func (c FilterCategory) String() string {
	return string(c)
}

const (
	FilterBrand            FilterCategory = "brand"
	FilterGPUModel         FilterCategory = "gpuModel"
	FilterProcessorModel   FilterCategory = "processorModel"
	FilterRAMType          FilterCategory = "ramType"
	FilterRAM              FilterCategory = "ram"
	FilterStorageType      FilterCategory = "storageType"
	FilterStorageCapacity  FilterCategory = "storageCapacity"
	FilterStockStatus      FilterCategory = "stockStatus"
	FilterScreenSize       FilterCategory = "screenSize"
	FilterScreenResolution FilterCategory = "screenResolution"
	FilterProcessorBrand   FilterCategory = "processorBrand"
	FilterGPUBrand         FilterCategory = "gpuBrand"
	FilterGraphicsType     FilterCategory = "graphicsType"
	FilterBacklightType    FilterCategory = "backlightType"
	FilterRefreshRate      FilterCategory = "refreshRate"
	FilterVRAM             FilterCategory = "vram"
	FilterYear             FilterCategory = "year"
	FilterModel            FilterCategory = "model"
	FilterShortDesc        FilterCategory = "shortDesc"
	FilterTags             FilterCategory = "tags"
	FilterMinPrice         FilterCategory = "minPrice" // at most one value
	FilterMaxPrice         FilterCategory = "maxPrice" // at most one value
)

// FilterCategories is the closed registry of categories, in display order.
var FilterCategories = []FilterCategory{
	FilterBrand,
	FilterGPUModel,
	FilterProcessorModel,
	FilterRAMType,
	FilterRAM,
	FilterStorageType,
	FilterStorageCapacity,
	FilterStockStatus,
	FilterScreenSize,
	FilterScreenResolution,
	FilterProcessorBrand,
	FilterGPUBrand,
	FilterGraphicsType,
	FilterBacklightType,
	FilterRefreshRate,
	FilterVRAM,
	FilterYear,
	FilterModel,
	FilterShortDesc,
	FilterTags,
	FilterMinPrice,
	FilterMaxPrice,
}

var categoryIndex = func() map[string]FilterCategory {
	idx := make(map[string]FilterCategory, len(FilterCategories))
	for _, c := range FilterCategories {
		idx[string(c)] = c
	}
	return idx
}()

// ParseFilterCategory reports whether name is a registered category.
func ParseFilterCategory(name string) (FilterCategory, bool) {
	c, ok := categoryIndex[name]
	return c, ok
}

// IsPriceBound reports whether the category is one of the price pseudo-categories.
func (c FilterCategory) IsPriceBound() bool {
	return c == FilterMinPrice || c == FilterMaxPrice
}

// IsValid reports whether the category belongs to the registry.
func (c FilterCategory) IsValid() bool {
	_, ok := categoryIndex[string(c)]
	return ok
}
