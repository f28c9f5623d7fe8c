package domain

// FeedResponse is the NeoWs /feed payload: objects grouped by calendar date.
type FeedResponse struct {
	ElementCount     int                 `json:"element_count"`
	NearEarthObjects map[string][]RawNeo `json:"near_earth_objects"`
}

// BrowsePage is one page of the NeoWs /neo/browse endpoint.
type BrowsePage struct {
	Page struct {
		Size          int `json:"size"`
		TotalElements int `json:"total_elements"`
		TotalPages    int `json:"total_pages"`
		Number        int `json:"number"`
	} `json:"page"`
	NearEarthObjects []RawNeo `json:"near_earth_objects"`
}

// RawNeo is one unnormalized near-Earth object as returned by NeoWs.
// Most fields are optional-with-default; only ID is required for the record
// to be normalizable.
type RawNeo struct {
	ID                string           `json:"id"`
	NeoReferenceID    string           `json:"neo_reference_id"`
	Name              string           `json:"name"`
	NasaJplURL        string           `json:"nasa_jpl_url"`
	AbsoluteMagnitude float64          `json:"absolute_magnitude_h"`
	EstimatedDiameter RawDiameterBlock `json:"estimated_diameter"`
	Hazardous         bool             `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData []RawApproach    `json:"close_approach_data"`
	Sentry            bool             `json:"is_sentry_object"`
}

// RawDiameterBlock holds the per-unit diameter ranges. The unit set is closed
// (kilometers, meters, miles, feet) so each unit is an explicit tagged field
// rather than a generic map. A nil unit means the source omitted it.
type RawDiameterBlock struct {
	Kilometers *RawDiameterRange `json:"kilometers,omitempty"`
	Meters     *RawDiameterRange `json:"meters,omitempty"`
	Miles      *RawDiameterRange `json:"miles,omitempty"`
	Feet       *RawDiameterRange `json:"feet,omitempty"`
}

// RawDiameterRange is one unit's min/max estimated diameter. Min and Max are
// pointers so a unit block missing a bound can be detected and skipped.
type RawDiameterRange struct {
	Min *float64 `json:"estimated_diameter_min,omitempty"`
	Max *float64 `json:"estimated_diameter_max,omitempty"`
}

// RawApproach is one close-approach entry. Velocity and miss-distance values
// arrive as strings and are parsed during normalization.
type RawApproach struct {
	CloseApproachDate     string          `json:"close_approach_date"`
	CloseApproachDateFull string          `json:"close_approach_date_full"`
	EpochDateCloseApproach int64          `json:"epoch_date_close_approach"`
	RelativeVelocity      RawVelocity     `json:"relative_velocity"`
	MissDistance          RawMissDistance `json:"miss_distance"`
	OrbitingBody          string          `json:"orbiting_body"`
}

// RawVelocity holds relative velocity in three units, string-encoded.
type RawVelocity struct {
	KilometersPerSecond string `json:"kilometers_per_second"`
	KilometersPerHour   string `json:"kilometers_per_hour"`
	MilesPerHour        string `json:"miles_per_hour"`
}

// RawMissDistance holds miss distance in four units, string-encoded.
type RawMissDistance struct {
	Astronomical string `json:"astronomical"`
	Lunar        string `json:"lunar"`
	Kilometers   string `json:"kilometers"`
	Miles        string `json:"miles"`
}
