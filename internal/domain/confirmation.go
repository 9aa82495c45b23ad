package domain

// Confirmation is one record decoded from a LoTW confirmation report.
// A confirmation is well-formed only when Call, QSODate and TimeOn are
// all present; the decoder drops anything else.
type Confirmation struct {
	Call        string `json:"call"`
	QSODate     string `json:"qso_date"` // YYYYMMDD
	TimeOn      string `json:"time_on"`  // HHMMSS
	Band        string `json:"band"`
	Mode        string `json:"mode"`
	Freq        string `json:"freq,omitempty"`
	QslRcvd     string `json:"app_lotw_qsl_rcvd,omitempty"`
	QslRcvdDate string `json:"qsl_rcvd_date,omitempty"`

	// Fields holds every other tag from the record, verbatim and in
	// encounter order, so unknown vocabulary survives a round trip.
	Fields FieldBag `json:"fields,omitempty"`
}

// FieldBag is a small insertion-ordered string map. It exists so the
// decoder's output stays strongly typed while remaining open to ADIF
// fields this server has no name for.
type FieldBag struct {
	keys   []string
	values map[string]string
}

func (b *FieldBag) Set(key, value string) {
	if b.values == nil {
		b.values = make(map[string]string)
	}
	if _, exists := b.values[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

func (b *FieldBag) Get(key string) (string, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Keys returns field names in the order they were first set.
func (b *FieldBag) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

func (b *FieldBag) Len() int {
	return len(b.keys)
}

// Verdict is the outcome of matching one confirmation against one
// local contact.
type Verdict string

const (
	VerdictConfirmed Verdict = "confirmed"
	VerdictPartial   Verdict = "partial"
	VerdictMismatch  Verdict = "mismatch"
)

// MatchResult pairs a confirmation with one qualifying contact. A
// confirmation may produce zero, one or many results; resolving
// multiplicity is the caller's job.
type MatchResult struct {
	Contact      *Contact
	Confirmation *Confirmation
	Verdict      Verdict
}
