// Package render draws the wallet as styled terminal text.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"giftwallet/internal/core"
	"giftwallet/internal/wallet"
)

const (
	HeaderTitle      = "My Wallet"
	TotalLabel       = "Total Balance"
	EmptyTitle       = "No cards in your wallet"
	EmptyMessage     = "Add your first Visa prepaid gift card to get started managing your balances."
	CardTitle        = "Prepaid Gift Card"
	DetailsTitle     = "Card Details"
	ActivityTitle    = "Recent Activity"
	NoTransactions   = "No transactions yet"
	LowBadge         = "Low"
	ExpiredBadge     = "Expired"
	LoadingText      = "Loading..."
	LoadErrorMessage = "Could not load cards"
)

// Styles groups the lipgloss styles used for each element.
type Styles struct {
	Header       lipgloss.Style
	Muted        lipgloss.Style
	Total        lipgloss.Style
	Card         lipgloss.Style
	ExpiredCard  lipgloss.Style
	LowBadge     lipgloss.Style
	ExpiredBadge lipgloss.Style
	Panel        lipgloss.Style
	Amount       lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastError   lipgloss.Style
}

func DefaultStyles() Styles {
	accent := lipgloss.Color("#87CEEB")
	return Styles{
		Header:       lipgloss.NewStyle().Foreground(accent).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Total:        lipgloss.NewStyle().Bold(true),
		Card:         lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1),
		ExpiredCard:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		LowBadge:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB347")).Bold(true),
		ExpiredBadge: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		Panel:        lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1),
		Amount:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		ToastSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD787")),
		ToastError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	}
}

type Renderer struct {
	styles Styles
}

func New() *Renderer {
	return &Renderer{styles: DefaultStyles()}
}

func NewWithStyles(s Styles) *Renderer {
	return &Renderer{styles: s}
}

// Page renders the header, summary and card grid of a list state.
func (r *Renderer) Page(st wallet.ListState) string {
	parts := []string{r.styles.Header.Render(HeaderTitle)}
	switch {
	case st.Loading:
		parts = append(parts, r.styles.Muted.Render(LoadingText))
	case st.Err != nil && len(st.Cards) == 0:
		parts = append(parts, r.styles.ExpiredBadge.Render(LoadErrorMessage))
	case len(st.Cards) == 0:
		parts = append(parts, r.Empty())
	default:
		parts = append(parts, r.Summary(st.Summary), r.Grid(st.Cards))
	}
	return strings.Join(parts, "\n\n")
}

// Summary renders the aggregate. It is empty when there are no cards.
func (r *Renderer) Summary(s core.Summary) string {
	if s.Count == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		r.styles.Muted.Render(TotalLabel),
		r.styles.Total.Render(core.FormatDollars(s.Total)),
		r.styles.Muted.Render(s.CountLabel()),
	)
}

func (r *Renderer) Empty() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		r.styles.Total.Render(EmptyTitle),
		r.styles.Muted.Render(EmptyMessage),
	)
}

// Card renders the card visual.
func (r *Renderer) Card(v core.CardView) string {
	title := CardTitle
	switch {
	case v.IsExpired:
		title += "  " + r.styles.ExpiredBadge.Render(ExpiredBadge)
	case v.ShowLowBadge():
		title += "  " + r.styles.LowBadge.Render(LowBadge)
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		v.MaskedNumber(),
		"Balance "+core.FormatDollars(v.Balance),
		r.styles.Muted.Render("Expires "+v.Expiry()),
	)
	if v.IsExpired {
		return r.styles.ExpiredCard.Render(body)
	}
	return r.styles.Card.Render(body)
}

// Grid renders cards one after another in list order.
func (r *Renderer) Grid(views []core.CardView) string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, r.Card(v))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

// Details renders the details panel, or nothing when it is closed.
func (r *Renderer) Details(p wallet.Panel, tx wallet.TransactionsState) string {
	if !p.Open || p.Card == nil {
		return ""
	}
	lines := []string{
		r.styles.Header.Render(DetailsTitle),
		r.Card(*p.Card),
		r.styles.Total.Render(ActivityTitle),
	}
	switch {
	case tx.Loading:
		lines = append(lines, r.styles.Muted.Render(LoadingText))
	case len(tx.Transactions) == 0:
		lines = append(lines, r.styles.Muted.Render(NoTransactions))
	default:
		for _, t := range tx.Transactions {
			lines = append(lines, r.Transaction(t))
		}
	}
	return r.styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Transaction renders one history row: merchant, date, type and the
// amount as a debit.
func (r *Renderer) Transaction(t core.Transaction) string {
	return strings.Join([]string{
		t.Merchant,
		r.styles.Muted.Render(t.Date),
		r.styles.Muted.Render(t.Type.Label()),
		r.styles.Amount.Render("-" + core.FormatAmount(t.Amount)),
	}, "  ")
}

func (r *Renderer) Toasts(toasts []wallet.Toast) string {
	out := make([]string, 0, len(toasts))
	for _, t := range toasts {
		style := r.styles.ToastSuccess
		if t.Kind == wallet.ToastError {
			style = r.styles.ToastError
		}
		out = append(out, style.Render(t.Title)+"  "+t.Message)
	}
	return strings.Join(out, "\n")
}
