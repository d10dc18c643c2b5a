package parsing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Patterns for the fixed REWE receipt template. Header fields are positional
// (same source, same layout), everything else is anchored on printed labels.
var (
	cityPattern     = regexp.MustCompile(`(\d{5})\s+(.+)`)
	uidPattern      = regexp.MustCompile(`UID Nr\.:\s*([A-Z]{2}\d+)`)
	itemPattern     = regexp.MustCompile(`^(.+?)\s+(\d+,\d{2})\s+[AB](?:\s+\*)?$`)
	quantityPattern = regexp.MustCompile(`^\s*(\d+)\s+Stk\s+x\s+(\d+,\d{2})$`)
	totalPattern    = regexp.MustCompile(`SUMME\s+EUR\s+(\d+,\d{2})`)
	paymentPattern  = regexp.MustCompile(`Geg\. (BAR|EC-KARTE|KARTE)\s+EUR\s+(\d+,\d{2})`)
	changePattern   = regexp.MustCompile(`Rückgeld (?:BAR|EC-KARTE|KARTE)?\s+EUR\s+(\d+,\d{2})`)
	taxPattern      = regexp.MustCompile(`Gesamtbetrag\s+[\d,]+\s+([\d,]+)\s+[\d,]+`)
	dateTimePattern = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})\s+(\d{2}:\d{2})\s+Bon-Nr\.:(\d+)`)
)

// pageMarkerPrefix starts the page separator lines the PDF text extraction
// inserts between pages.
const pageMarkerPrefix = "---"

// Warning reports a field the parser had to default because its pattern did
// not match or its numeric token was malformed.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a parse. The receipt is always present; parsing is
// best-effort and degrades to defaulted fields instead of failing.
type Result struct {
	Receipt  *Receipt  `json:"receipt"`
	Warnings []Warning `json:"warnings,omitempty"`
}

func (r *Result) warn(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Parse reconstructs a receipt from the text of a rendered PDF. It never
// fails: totally malformed input yields a receipt with zero items and default
// fields, with a warning per defaulted field.
func Parse(text string) *Result {
	result := &Result{Receipt: &Receipt{}}
	receipt := result.Receipt

	lines := normalizeLines(text)

	parseHeader(receipt, lines, result)
	receipt.Items = scanItems(lines, result)
	parseTrailingFields(receipt, text, result)

	return result
}

// normalizeLines trims all lines, drops empty ones and drops page separator
// artifacts. Consumers must not rely on blank-line-delimited blocks.
func normalizeLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, pageMarkerPrefix) {
			continue
		}
		lines = append(lines, stripped)
	}
	return lines
}

// parseHeader reads the positional header: store name, address line, and a
// postal-code-plus-city line. Missing lines default to empty strings.
func parseHeader(receipt *Receipt, lines []string, result *Result) {
	if len(lines) > 0 {
		receipt.StoreName = lines[0]
	}
	if len(lines) > 1 {
		receipt.Address = lines[1]
	}
	if len(lines) > 2 {
		if m := cityPattern.FindStringSubmatch(lines[2]); m != nil {
			receipt.City = strings.TrimSpace(m[2])
		}
	}
	if len(lines) < 3 {
		result.warn("header", "fewer than 3 lines, header fields defaulted")
	}
}

// scanItems walks the normalized lines once with one-line lookahead. A
// primary item line yields an item with its printed total; a quantity line
// directly below refines quantity and unit price and is consumed with it.
//
// Pairing is purely positional: any next line matching the quantity pattern
// is absorbed, even if it only coincidentally resembles one. Known
// limitation, kept for layout compatibility.
func scanItems(lines []string, result *Result) []Item {
	var items []Item

	for i := 0; i < len(lines); {
		m := itemPattern.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}

		total, err := parseAmount(m[2])
		if err != nil {
			result.warn("items", "malformed amount %q on line %q, line skipped", m[2], lines[i])
			i++
			continue
		}

		item := Item{
			Name:         strings.TrimSpace(m[1]),
			PricePerUnit: total,
			Quantity:     1.0,
			Total:        total,
		}

		if i+1 < len(lines) {
			if qm := quantityPattern.FindStringSubmatch(lines[i+1]); qm != nil {
				quantity, qerr := strconv.ParseFloat(qm[1], 64)
				unitPrice, perr := parseAmount(qm[2])
				if qerr == nil && perr == nil {
					item.Quantity = quantity
					item.PricePerUnit = unitPrice
					items = append(items, item)
					i += 2
					continue
				}
				result.warn("items", "malformed quantity line %q ignored", lines[i+1])
			}
		}

		items = append(items, item)
		i++
	}

	if len(items) == 0 {
		result.warn("items", "no item lines matched")
	}
	return items
}

// parseTrailingFields runs the independent label-anchored searches over the
// full raw text. Every extractor tolerates a missing match and defaults.
func parseTrailingFields(receipt *Receipt, text string, result *Result) {
	if m := totalPattern.FindStringSubmatch(text); m != nil {
		if v, err := parseAmount(m[1]); err == nil {
			receipt.TotalAmount = v
		} else {
			result.warn("total_amount", "malformed amount %q, defaulted to 0", m[1])
		}
	} else {
		result.warn("total_amount", "SUMME line not found, defaulted to 0")
	}

	if m := paymentPattern.FindStringSubmatch(text); m != nil {
		receipt.PaymentMethod = m[1]
		if v, err := parseAmount(m[2]); err == nil {
			receipt.AmountGiven = v
		} else {
			result.warn("amount_given", "malformed amount %q, defaulted to 0", m[2])
		}
	} else {
		result.warn("payment_methode", "Geg. line not found, payment fields defaulted")
	}

	if m := changePattern.FindStringSubmatch(text); m != nil {
		if v, err := parseAmount(m[1]); err == nil {
			receipt.Change = v
		} else {
			result.warn("change", "malformed amount %q, defaulted to 0", m[1])
		}
	} else {
		// Card payments print no change line.
		result.warn("change", "Rückgeld line not found, defaulted to 0")
	}

	if m := taxPattern.FindStringSubmatch(text); m != nil {
		if v, err := parseAmount(m[1]); err == nil {
			receipt.Taxes = v
		} else {
			result.warn("taxes", "malformed amount %q, defaulted to 0", m[1])
		}
	} else {
		result.warn("taxes", "Gesamtbetrag line not found, defaulted to 0")
	}

	// Date, time and Bon-Nr. must appear contiguously. On a failed match all
	// three stay empty so the deduplication key is never partially populated.
	if m := dateTimePattern.FindStringSubmatch(text); m != nil {
		receipt.Date = m[1]
		receipt.Time = m[2]
		receipt.BonNr = m[3]
	} else {
		result.warn("bon_nr", "date/time/Bon-Nr. line not found, all three defaulted")
	}

	if m := uidPattern.FindStringSubmatch(text); m != nil {
		receipt.UIDNr = m[1]
	} else {
		result.warn("uid_nr", "UID Nr. not found, defaulted to empty")
	}
}

// parseAmount converts a comma-decimal amount to a float. Thousands
// separators are out of scope, receipt totals stay below four digits.
func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}
