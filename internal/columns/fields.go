package columns

// Field pairs a semantic field name with the header substrings accepted for it.
type Field struct {
	Name       string
	Candidates []string
}

// Semantic invoice fields.
const (
	PartyName  = "party_name"
	BillNo     = "bill_no"
	BillDate   = "bill_date"
	DueDate    = "due_date"
	DueDays    = "due_days"
	BillAmount = "bill_amount"
	PartyGSTIN = "party_gstin"
)

// InvoiceFields is the header table used for invoice sheets. Candidate
// order within a field does not matter; header order does.
var InvoiceFields = []Field{
	{PartyName, []string{"partyname", "party", "name", "customer"}},
	{BillNo, []string{"billno", "bill", "invoice", "invoiceno"}},
	{BillDate, []string{"billdate", "invoicedate", "date"}},
	{DueDate, []string{"duedate", "due"}},
	{DueDays, []string{"duedays", "days"}},
	{BillAmount, []string{"billamount", "amount", "total"}},
	{PartyGSTIN, []string{"partygstin", "gstin", "gst"}},
}
