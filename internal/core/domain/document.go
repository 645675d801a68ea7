package domain

// LinkedValues wraps a nested collection for the index schema. The index
// mapping expects an object with a values array, never null.
type LinkedValues struct {
	Values []LinkedValue `json:"values"`
}

// Document is the destination index schema: a flattened, defaulted
// projection of Record. Every field carries a type-stable default so the
// index never sees null or undefined.
type Document struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Company     string       `json:"company"`
	Location    string       `json:"location"`
	Region      string       `json:"location_region"`
	Postal      string       `json:"location_postal"`
	Date        string       `json:"date"`
	URL         string       `json:"url"`
	Website     string       `json:"website"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Skills      LinkedValues `json:"skills"`
	Languages   LinkedValues `json:"languages"`
	Embedding   []float32    `json:"combined_embeddings"`
}

// MapRecord transforms a source record into the index document schema.
// Pure function: no I/O and no failure path. Absent values are coerced to
// their defaults (empty string, empty values wrapper, empty vector) and no
// schema field is dropped or reordered.
func MapRecord(r Record) Document {
	return Document{
		ID:          r.ID,
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		Region:      r.Region,
		Postal:      r.Postal,
		Date:        r.Date,
		URL:         r.URL,
		Website:     r.Website,
		Category:    r.Category,
		Description: r.Description,
		Skills:      LinkedValues{Values: coerceValues(r.Skills)},
		Languages:   LinkedValues{Values: coerceValues(r.Languages)},
		Embedding:   coerceVector(r.Embedding),
	}
}

func coerceValues(vs []LinkedValue) []LinkedValue {
	if vs == nil {
		return []LinkedValue{}
	}
	return vs
}

func coerceVector(v []float32) []float32 {
	if v == nil {
		return []float32{}
	}
	return v
}
