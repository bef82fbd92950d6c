package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

const recentLimit = 5

// RecentItem is an expense or income shown on the dashboard.
type RecentItem struct {
	Kind     string     `json:"kind"`
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Date     core.Date  `json:"date"`
}

// Dashboard summarises the current month.
type Dashboard struct {
	Year          int                   `json:"year"`
	Month         int                   `json:"month"`
	Income        core.Summary          `json:"income"`
	Expenses      core.Summary          `json:"expenses"`
	Balance       core.Money            `json:"balance"`
	Budgets       []core.Budget         `json:"budgets"`
	OverBudget    []string              `json:"over_budget"`
	TopCategories []core.CategoryAmount `json:"top_categories"`
	Recent        []RecentItem          `json:"recent"`
}

// CategoryReport breaks a period down by category and income source.
type CategoryReport struct {
	Year     int                   `json:"year"`
	Month    int                   `json:"month,omitempty"`
	Expenses []core.CategoryAmount `json:"expenses"`
	Incomes  []core.CategoryAmount `json:"incomes"`
}

type ReportService struct {
	expenses *ExpenseService
	incomes  *IncomeService
	budgets  *BudgetService
	now      func() time.Time
}

func NewReportService(expenses *ExpenseService, incomes *IncomeService, budgets *BudgetService) *ReportService {
	return &ReportService{expenses: expenses, incomes: incomes, budgets: budgets, now: time.Now}
}

type snapshot struct {
	expenses []core.Expense
	incomes  []core.Income
	budgets  []core.Budget
}

// load fetches the user's records concurrently.
func (s *ReportService) load(ctx context.Context, userID int64, withBudgets bool) (snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.expenses, err = s.expenses.All(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.incomes, err = s.incomes.All(ctx, userID)
		return err
	})
	if withBudgets {
		g.Go(func() error {
			var err error
			snap.budgets, err = s.budgets.List(ctx, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func (s *ReportService) Dashboard(ctx context.Context, userID int64) (Dashboard, error) {
	snap, err := s.load(ctx, userID, true)
	if err != nil {
		return Dashboard{}, err
	}

	today := core.DateOf(s.now())
	from, to := core.MonthRange(today.Year(), today.Month())
	month := core.Criteria{From: from, To: to}
	monthExpenses := core.Filter(snap.expenses, month)
	monthIncomes := core.Filter(snap.incomes, month)

	d := Dashboard{
		Year:          today.Year(),
		Month:         today.Month(),
		Income:        core.Summarize(monthIncomes),
		Expenses:      core.Summarize(monthExpenses),
		Budgets:       snap.budgets,
		OverBudget:    []string{},
		TopCategories: core.ByCategory(monthExpenses),
		Recent:        recent(snap.expenses, snap.incomes, recentLimit),
	}
	d.Balance = core.Money{Cents: d.Income.Total.Cents - d.Expenses.Total.Cents}
	for _, b := range snap.budgets {
		if b.Exceeded() {
			d.OverBudget = append(d.OverBudget, b.Category)
		}
	}
	if d.TopCategories == nil {
		d.TopCategories = []core.CategoryAmount{}
	}
	return d, nil
}

// recent merges both newest-first lists and keeps the first n.
func recent(expenses []core.Expense, incomes []core.Income, n int) []RecentItem {
	items := make([]RecentItem, 0, len(expenses)+len(incomes))
	for _, e := range expenses {
		items = append(items, RecentItem{Kind: amqp.KindExpense, ID: e.ID, Name: e.Name, Category: e.Category, Amount: e.Amount, Date: e.Date})
	}
	for _, in := range incomes {
		items = append(items, RecentItem{Kind: amqp.KindIncome, ID: in.ID, Name: in.Name, Category: in.Source, Amount: in.Amount, Date: in.Date})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.Compare(items[j].Date) > 0
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

func validYear(year int) error {
	if year < 1900 || year > 9999 {
		return fmt.Errorf("%w: year %d", core.ErrInvalidDate, year)
	}
	return nil
}

// Monthly returns income and expense totals for each month of year.
func (s *ReportService) Monthly(ctx context.Context, userID int64, year int) ([]core.MonthTotals, error) {
	if err := validYear(year); err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	return core.Monthly(year, snap.expenses, snap.incomes), nil
}

// Categories groups a month, or the whole year when month is 0.
func (s *ReportService) Categories(ctx context.Context, userID int64, year, month int) (CategoryReport, error) {
	if err := validYear(year); err != nil {
		return CategoryReport{}, err
	}
	if month < 0 || month > 12 {
		return CategoryReport{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	snap, err := s.load(ctx, userID, false)
	if err != nil {
		return CategoryReport{}, err
	}

	period := core.Criteria{From: core.NewDate(year, 1, 1), To: core.NewDate(year, 12, 31)}
	if month > 0 {
		period.From, period.To = core.MonthRange(year, month)
	}
	r := CategoryReport{
		Year:     year,
		Month:    month,
		Expenses: core.ByCategory(core.Filter(snap.expenses, period)),
		Incomes:  core.ByCategory(core.Filter(snap.incomes, period)),
	}
	if r.Expenses == nil {
		r.Expenses = []core.CategoryAmount{}
	}
	if r.Incomes == nil {
		r.Incomes = []core.CategoryAmount{}
	}
	return r, nil
}

// ExportCSV writes the expenses matching c followed by a total row.
func (s *ReportService) ExportCSV(ctx context.Context, userID int64, c core.Criteria, w io.Writer) error {
	list, summary, err := s.expenses.List(ctx, userID, c)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "date", "name", "category", "amount", "notes"})
	for _, e := range list {
		_ = cw.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			core.CellText(e.Name),
			core.CellText(e.Category),
			e.Amount.String(),
			core.CellText(e.Notes),
		})
	}
	_ = cw.Write([]string{"", "", "Total", strconv.Itoa(summary.Count), summary.Total.String(), ""})
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
