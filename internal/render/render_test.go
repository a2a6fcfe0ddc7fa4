package render

import (
	"math"
	"strings"
	"testing"

	"giftwallet/internal/core"
	"giftwallet/internal/wallet"
)

func views() []core.CardView {
	return core.ToViews([]core.CardRecord{
		{ID: "1", LastFourDigits: "4532", Balance: "150.00", ExpiryMonth: "12", ExpiryYear: "26"},
		{ID: "2", LastFourDigits: "7891", Balance: "8.50", ExpiryMonth: "03", ExpiryYear: "25"},
	})
}

func TestPage_Empty(t *testing.T) {
	out := New().Page(wallet.ListState{Cards: []core.CardView{}})
	for _, want := range []string{HeaderTitle, EmptyTitle, EmptyMessage} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, TotalLabel) {
		t.Error("summary must be hidden without cards")
	}
}

func TestPage_WithCards(t *testing.T) {
	v := views()
	out := New().Page(wallet.ListState{Cards: v, Summary: core.Summarize(v)})
	for _, want := range []string{TotalLabel, "$158.50", "2 cards in wallet", "•••• •••• •••• 4532", "Balance $8.50", "Expires 03/25", LowBadge} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestCard_Badges(t *testing.T) {
	r := New()
	expired := true
	v := core.ToView(core.CardRecord{ID: "x", LastFourDigits: "0001", Balance: "2", ExpiryMonth: "01", ExpiryYear: "20", IsExpired: &expired})
	out := r.Card(v)
	if !strings.Contains(out, ExpiredBadge) || strings.Contains(out, LowBadge) {
		t.Errorf("expired card should carry only the expired badge:\n%s", out)
	}

	nan := core.CardView{LastFourDigits: "0002", Balance: math.NaN(), ExpiryMonth: "01", ExpiryYear: "30"}
	out = r.Card(nan)
	if !strings.Contains(out, "$NaN") || strings.Contains(out, LowBadge) {
		t.Errorf("unparseable balance renders as $NaN without badge:\n%s", out)
	}
}

func TestSummary_Singular(t *testing.T) {
	out := New().Summary(core.Summary{Total: 5, Count: 1})
	if !strings.Contains(out, "1 card in wallet") {
		t.Errorf("got %s", out)
	}
}

func TestDetails(t *testing.T) {
	r := New()
	card := views()[0]

	if got := r.Details(wallet.Panel{}, wallet.TransactionsState{}); got != "" {
		t.Errorf("closed panel should render nothing, got %q", got)
	}

	out := r.Details(wallet.Panel{Open: true, Card: &card}, wallet.TransactionsState{Active: true})
	if !strings.Contains(out, DetailsTitle) || !strings.Contains(out, NoTransactions) {
		t.Errorf("empty history:\n%s", out)
	}

	out = r.Details(wallet.Panel{Open: true, Card: &card}, wallet.TransactionsState{
		Active: true,
		Transactions: []core.Transaction{
			{ID: "t1", Merchant: "Amazon", Amount: "25.99", Date: "2024-01-15", Type: core.Purchase},
		},
	})
	for _, want := range []string{ActivityTitle, "Amazon", "2024-01-15", "Purchase", "-$25.99"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestToasts(t *testing.T) {
	out := New().Toasts([]wallet.Toast{
		{Kind: wallet.ToastSuccess, Title: "Card added", Message: "ok"},
		{Kind: wallet.ToastError, Title: "Error", Message: "failed"},
	})
	if !strings.Contains(out, "Card added") || !strings.Contains(out, "failed") {
		t.Errorf("got %s", out)
	}
}
