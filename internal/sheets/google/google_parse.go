package google

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ports "giftwallet/internal/sheets"
)

func validateEntry(e ports.LedgerEntry) error {
	if strings.TrimSpace(e.Event) == "" {
		return errors.New("empty event")
	}
	if strings.TrimSpace(e.CardID) == "" {
		return errors.New("empty card id")
	}
	if e.Timestamp.IsZero() {
		return errors.New("missing timestamp")
	}
	return nil
}

func entryRow(e ports.LedgerEntry) []any {
	return []any{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Event,
		e.CardID,
		e.LastFourDigits,
		e.Balance,
	}
}

// parseLedger converts a values matrix (as returned by the Sheets API)
// into ledger entries. Columns are located by header name so reordered
// sheets still parse; blank rows are skipped.
func parseLedger(values [][]interface{}) ([]ports.LedgerEntry, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colTime := indexOf(headers, "Timestamp")
	colEvent := indexOf(headers, "Event")
	colCard := indexOf(headers, "Card ID")
	colLast := indexOf(headers, "Last Four")
	colBalance := indexOf(headers, "Balance")
	if colTime == -1 || colEvent == -1 || colCard == -1 {
		missing := make([]string, 0, 3)
		if colTime == -1 {
			missing = append(missing, "Timestamp")
		}
		if colEvent == -1 {
			missing = append(missing, "Event")
		}
		if colCard == -1 {
			missing = append(missing, "Card ID")
		}
		return nil, fmt.Errorf("unexpected ledger header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []ports.LedgerEntry
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, safeGet(row, colTime))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp %q", i+1, safeGet(row, colTime))
		}
		out = append(out, ports.LedgerEntry{
			Timestamp:      ts,
			Event:          safeGet(row, colEvent),
			CardID:         safeGet(row, colCard),
			LastFourDigits: safeGet(row, colLast),
			Balance:        safeGet(row, colBalance),
		})
	}
	return out, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
