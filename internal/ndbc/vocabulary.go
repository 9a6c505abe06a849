package ndbc

// Vocabulary is the set of observation field names that identify a header line.
type Vocabulary map[string]struct{}

// DefaultVocabulary holds the standard meteorological and wave fields of the
// NDBC realtime2 station files.
var DefaultVocabulary = NewVocabulary(
	"WDIR", "WSPD", "GST", "WVHT", "DPD", "APD", "MWD",
	"PRES", "ATMP", "WTMP", "DEWP", "VIS", "PTDY", "TIDE",
)

func NewVocabulary(fields ...string) Vocabulary {
	v := make(Vocabulary, len(fields))
	for _, f := range fields {
		v[f] = struct{}{}
	}
	return v
}

func (v Vocabulary) Contains(field string) bool {
	_, ok := v[field]
	return ok
}

// With returns a copy of the vocabulary extended with extra fields.
func (v Vocabulary) With(fields ...string) Vocabulary {
	out := make(Vocabulary, len(v)+len(fields))
	for f := range v {
		out[f] = struct{}{}
	}
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
