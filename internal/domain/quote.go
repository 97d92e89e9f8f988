package domain

// Placeholder is rendered in place of a value or change that could not be
// fetched.
const Placeholder = "-"

// QuoteRecord is one normalized (label, value, change) card. Change is empty
// when the source does not publish one.
type QuoteRecord struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Change string `json:"change,omitempty"`
}

func NewQuoteRecord(label, value, change string) QuoteRecord {
	return QuoteRecord{
		Label:  label,
		Value:  value,
		Change: change,
	}
}

// PlaceholderRecord is the ("-", "-") record substituted for a failed item.
func PlaceholderRecord(label string) QuoteRecord {
	return QuoteRecord{
		Label:  label,
		Value:  Placeholder,
		Change: Placeholder,
	}
}

func (q QuoteRecord) IsPlaceholder() bool {
	return q.Value == Placeholder && q.Change == Placeholder
}

// ItemResult is the outcome of fetching one labelled item of a source.
// Exactly one of Record or Err is meaningful.
type ItemResult struct {
	Label  string
	Record QuoteRecord
	Err    error
}

func ItemOK(record QuoteRecord) ItemResult {
	return ItemResult{Label: record.Label, Record: record}
}

func ItemFailed(label string, err error) ItemResult {
	return ItemResult{Label: label, Err: err}
}
