package extraction

// Confidence weights applied by the orchestrator for each populated field.
const (
	BaseConfidence          = 0.3
	CompanyNameWeight       = 0.25
	InvoiceNumberWeight     = 0.25
	IssueDateWeight         = 0.15
	DueDateWeight           = 0.10
	TotalAmountWeight       = 0.15
	ReconciledAmountsWeight = 0.20
	DescriptionWeight       = 0.10
	MaxConfidence           = 1.0
)

// Fields is the structured record inferred from raw invoice text.
// Every field except Confidence is optional and nil when not found.
type Fields struct {
	CompanyName   *string  `json:"companyName,omitempty"`
	InvoiceNumber *string  `json:"invoiceNumber,omitempty"`
	IssueDate     *string  `json:"issueDate,omitempty"`
	DueDate       *string  `json:"dueDate,omitempty"`
	TotalAmount   *float64 `json:"totalAmount,omitempty"`
	NetAmount     *float64 `json:"netAmount,omitempty"`
	VATAmount     *float64 `json:"vatAmount,omitempty"`
	VATRate       *float64 `json:"vatRate,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Confidence    float64  `json:"confidence"`
}

// Populated returns the JSON names of the optional fields that were set.
func (f Fields) Populated() []string {
	var names []string
	if f.CompanyName != nil {
		names = append(names, "companyName")
	}
	if f.InvoiceNumber != nil {
		names = append(names, "invoiceNumber")
	}
	if f.IssueDate != nil {
		names = append(names, "issueDate")
	}
	if f.DueDate != nil {
		names = append(names, "dueDate")
	}
	if f.TotalAmount != nil {
		names = append(names, "totalAmount")
	}
	if f.NetAmount != nil {
		names = append(names, "netAmount")
	}
	if f.VATAmount != nil {
		names = append(names, "vatAmount")
	}
	if f.VATRate != nil {
		names = append(names, "vatRate")
	}
	if f.Description != nil {
		names = append(names, "description")
	}
	return names
}

func stringPtr(s string) *string { return &s }

func floatPtr(v float64) *float64 { return &v }
