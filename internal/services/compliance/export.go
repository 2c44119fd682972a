package compliance

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/xchangepos/backend/internal/models"
)

// FintracXMLNamespace is the namespace of every report and batch document
const FintracXMLNamespace = "https://www.fintrac-canafe.gc.ca/vctr/1.0"

const xmlDateLayout = "2006-01-02"

// CSVHeader is the fixed column set of a CSV export
var CSVHeader = []string{
	"Report_ID",
	"Report_Type",
	"Report_Reference",
	"Transaction_ID",
	"Currency_Type",
	"Amount",
	"CAD_Equivalent",
	"Transaction_Hash",
	"Sender_Wallet",
	"Receiver_Wallet",
	"Customer_Name",
	"Submission_Status",
	"Created_At",
}

// ExportResult holds the same set of reports serialized three ways
type ExportResult struct {
	XML  string `json:"xml"`
	JSON string `json:"json"`
	CSV  string `json:"csv"`
}

// reportXML takes its element name from XMLName, set per report type
type reportXML struct {
	XMLName     xml.Name
	Namespace   string               `xml:"xmlns,attr"`
	Header      reportHeaderXML      `xml:"report_header"`
	Transaction virtualCurrencyTxXML `xml:"virtual_currency_transaction"`
}

type reportHeaderXML struct {
	ReportType      string `xml:"report_type"`
	ReportReference string `xml:"report_reference"`
	SubmissionDate  string `xml:"submission_date"`
}

type virtualCurrencyTxXML struct {
	TransactionID   string `xml:"transaction_id"`
	CurrencyType    string `xml:"currency_type"`
	Amount          string `xml:"amount"`
	CADEquivalent   string `xml:"cad_equivalent"`
	TransactionHash string `xml:"transaction_hash"`
}

type batchXML struct {
	XMLName        xml.Name    `xml:"fintrac_batch"`
	Namespace      string      `xml:"xmlns,attr"`
	BatchID        string      `xml:"batch_id"`
	ReportCount    int         `xml:"report_count"`
	SubmissionDate string      `xml:"submission_date"`
	Reports        []reportXML
}

func newReportXML(report models.Report) reportXML {
	tx := report.VirtualCurrencyTransaction
	return reportXML{
		XMLName:   xml.Name{Local: strings.ToLower(string(report.ReportType)) + "_report"},
		Namespace: FintracXMLNamespace,
		Header: reportHeaderXML{
			ReportType:      string(report.ReportType),
			ReportReference: report.ReportReference,
			SubmissionDate:  report.SubmissionDate.UTC().Format(xmlDateLayout),
		},
		Transaction: virtualCurrencyTxXML{
			TransactionID:   tx.TransactionID,
			CurrencyType:    tx.CurrencyType,
			Amount:          tx.Amount.String(),
			CADEquivalent:   tx.CADEquivalent.StringFixed(2),
			TransactionHash: tx.TransactionHash,
		},
	}
}

// ReportXML renders a single report in the regulator submission format
func ReportXML(report models.Report) (string, error) {
	out, err := xml.MarshalIndent(newReportXML(report), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to build report XML: %w", err)
	}
	return xml.Header + string(out), nil
}

// BatchXML wraps the reports in a fintrac_batch envelope. The batch id is
// derived from the report references so the same set always yields the same id.
func BatchXML(reports []models.Report, at time.Time) (string, error) {
	batch := batchXML{
		Namespace:      FintracXMLNamespace,
		BatchID:        batchID(reports),
		ReportCount:    len(reports),
		SubmissionDate: at.UTC().Format(xmlDateLayout),
		Reports:        make([]reportXML, 0, len(reports)),
	}
	for _, report := range reports {
		batch.Reports = append(batch.Reports, newReportXML(report))
	}

	out, err := xml.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to build batch XML: %w", err)
	}
	return xml.Header + string(out), nil
}

func batchID(reports []models.Report) string {
	h := sha256.New()
	for _, report := range reports {
		h.Write([]byte(report.ReportReference))
		h.Write([]byte{'\n'})
	}
	return "BATCH_" + strings.ToUpper(hex.EncodeToString(h.Sum(nil))[:16])
}

// ReportsJSON renders the reports as a pretty-printed JSON array
func ReportsJSON(reports []models.Report) (string, error) {
	if reports == nil {
		reports = []models.Report{}
	}
	out, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to build report JSON: %w", err)
	}
	return string(out), nil
}

// ReportsCSV renders one row per report under CSVHeader. Fields are quoted
// per RFC 4180 when they contain delimiters.
func ReportsCSV(reports []models.Report) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(CSVHeader); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, report := range reports {
		tx := report.VirtualCurrencyTransaction
		row := []string{
			report.ID,
			string(report.ReportType),
			report.ReportReference,
			tx.TransactionID,
			tx.CurrencyType,
			tx.Amount.String(),
			tx.CADEquivalent.StringFixed(2),
			tx.TransactionHash,
			tx.SenderWallet,
			tx.ReceiverWallet,
			report.Conductor.DisplayName(),
			string(report.SubmissionStatus),
			report.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row for report %s: %w", report.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.String(), nil
}

// Export serializes the stored reports whose ids are listed, in store order.
// Unknown ids are skipped. Report state is never modified.
func (s *CryptoFINTRACService) Export(ctx context.Context, reportIDs []string) (*ExportResult, error) {
	wanted := make(map[string]struct{}, len(reportIDs))
	for _, id := range reportIDs {
		wanted[id] = struct{}{}
	}

	selected := make([]models.Report, 0, len(reportIDs))
	for _, report := range s.store.GetAll(ctx) {
		if _, ok := wanted[report.ID]; ok {
			selected = append(selected, report)
		}
	}

	xmlOut, err := BatchXML(selected, s.now())
	if err != nil {
		return nil, err
	}
	jsonOut, err := ReportsJSON(selected)
	if err != nil {
		return nil, err
	}
	csvOut, err := ReportsCSV(selected)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		XML:  xmlOut,
		JSON: jsonOut,
		CSV:  csvOut,
	}, nil
}
