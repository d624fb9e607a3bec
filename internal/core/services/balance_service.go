package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portsrepo "github.com/openledger-app/openledger/internal/core/ports/repositories"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/dto"
	"github.com/openledger-app/openledger/internal/middleware"
	"github.com/openledger-app/openledger/internal/utils/accounting"
)

// balanceService computes point-in-time balances and trial balances from
// ledger postings.
type balanceService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	accounts   portssvc.AccountRegistry
}

// NewBalanceService creates a new BalanceSvcFacade.
func NewBalanceService(ledgerRepo portsrepo.LedgerRepositoryFacade, accounts portssvc.AccountRegistry) portssvc.BalanceSvcFacade {
	return &balanceService{ledgerRepo: ledgerRepo, accounts: accounts}
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

// AccountBalance sums all postings for the account dated at or before asOf
// and renders the net as a (debit, credit) pair on the account's normal side.
func (s *balanceService) AccountBalance(ctx context.Context, orgID, accountID string, asOf time.Time) (*domain.AccountBalanceResult, error) {
	account, err := s.accounts.GetAccount(ctx, orgID, accountID)
	if err != nil {
		return nil, err
	}

	totals, err := s.ledgerRepo.SumPostingsByAccount(ctx, orgID, accountID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate postings for account %s: %w", accountID, err)
	}

	net := accounting.SignedNet(totals.Debit, totals.Credit, account.NormalBalance)
	debit, credit := accounting.SplitToPair(net, account.NormalBalance)

	return &domain.AccountBalanceResult{
		AccountID:   accountID,
		AsOf:        asOf,
		TotalDebit:  totals.Debit,
		TotalCredit: totals.Credit,
		Net:         net,
		Debit:       debit,
		Credit:      credit,
	}, nil
}

// PeriodBalance retrieves the cached roll-up for one (account, period) cell.
func (s *balanceService) PeriodBalance(ctx context.Context, orgID, accountID, periodID string) (*domain.AccountPeriodBalance, error) {
	if _, err := s.accounts.GetAccount(ctx, orgID, accountID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.FindBalance(ctx, orgID, accountID, periodID)
}

// PeriodBalances retrieves an account's roll-ups across all periods it has
// been posted to, in fiscal order.
func (s *balanceService) PeriodBalances(ctx context.Context, orgID, accountID string) ([]domain.AccountPeriodBalance, error) {
	if _, err := s.accounts.GetAccount(ctx, orgID, accountID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.ListBalancesByAccount(ctx, orgID, accountID)
}

// checkLedgerIntegrity verifies total base debits equal total base credits
// across the whole org ledger. A mismatch means the posting atomicity
// guarantee was violated; it is surfaced loudly, never silently corrected.
func checkLedgerIntegrity(ctx context.Context, orgID string, sums map[string]domain.DebitCredit) error {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, dc := range sums {
		totalDebit = totalDebit.Add(dc.Debit)
		totalCredit = totalCredit.Add(dc.Credit)
	}
	if !totalDebit.Equal(totalCredit) {
		middleware.GetLoggerFromCtx(ctx).Error("Ledger integrity check failed",
			slog.String("org_id", orgID),
			slog.String("total_debit", totalDebit.String()),
			slog.String("total_credit", totalCredit.String()))
		return fmt.Errorf("%w: org %s total debit %s vs total credit %s",
			apperrors.ErrImbalance, orgID, totalDebit.String(), totalCredit.String())
	}
	return nil
}

// tbLeaf pairs an account with its computed balance pair for row assembly.
type tbLeaf struct {
	account domain.Account
	net     decimal.Decimal
	debit   decimal.Decimal
	credit  decimal.Decimal
	warning string
}

// TrialBalance computes every matching account's balance at a date. Inactive
// accounts appear only with a nonzero balance (flagged); zero-balance rows
// can be suppressed; rows can be grouped by class or by parent hierarchy with
// synthetic subtotal headers.
func (s *balanceService) TrialBalance(ctx context.Context, orgID string, params dto.TrialBalanceParams) (*domain.TrialBalanceReport, error) {
	asOf := params.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	groupBy := domain.TrialBalanceGroupBy(params.GroupBy)
	if groupBy == "" {
		groupBy = domain.GroupByNone
	}

	// The integrity check runs over the unfiltered ledger: a filtered subset
	// legitimately need not balance, ledger corruption must still surface.
	sums, err := s.ledgerRepo.SumPostingsByOrg(ctx, orgID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate postings: %w", err)
	}
	if err := checkLedgerIntegrity(ctx, orgID, sums); err != nil {
		return nil, err
	}

	filter := domain.AccountFilter{
		Classes:    params.Classes,
		CodeFrom:   params.CodeFrom,
		CodeTo:     params.CodeTo,
		AccountIDs: params.AccountIDs,
	}
	accounts, err := s.accounts.ListAccounts(ctx, orgID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	leaves := make([]tbLeaf, 0, len(accounts))
	for _, acc := range accounts {
		dc := sums[acc.AccountID]
		net := accounting.SignedNet(dc.Debit, dc.Credit, acc.NormalBalance)
		debit, credit := accounting.SplitToPair(net, acc.NormalBalance)

		leaf := tbLeaf{account: acc, net: net, debit: debit, credit: credit}
		if !acc.IsActive {
			if net.IsZero() {
				continue
			}
			leaf.warning = "inactive account carries a nonzero balance"
		} else if params.SuppressZero && net.IsZero() {
			continue
		}
		leaves = append(leaves, leaf)
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].account.Code < leaves[j].account.Code })

	var rows []domain.TrialBalanceRow
	switch groupBy {
	case domain.GroupByClass:
		rows = groupLeavesByClass(leaves)
	case domain.GroupByHierarchy:
		rows, err = groupLeavesByHierarchy(leaves, accounts)
		if err != nil {
			return nil, err
		}
	default:
		rows = make([]domain.TrialBalanceRow, 0, len(leaves))
		for _, leaf := range leaves {
			rows = append(rows, leafRow(leaf, 0))
		}
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, leaf := range leaves {
		totalDebit = totalDebit.Add(leaf.debit)
		totalCredit = totalCredit.Add(leaf.credit)
	}

	return &domain.TrialBalanceReport{
		OrgID:       orgID,
		AsOf:        asOf,
		GroupBy:     groupBy,
		Rows:        rows,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
	}, nil
}

func leafRow(leaf tbLeaf, depth int) domain.TrialBalanceRow {
	return domain.TrialBalanceRow{
		AccountID:   leaf.account.AccountID,
		AccountCode: leaf.account.Code,
		AccountName: leaf.account.Name,
		Class:       leaf.account.Class,
		Depth:       depth,
		Warning:     leaf.warning,
		Debit:       leaf.debit,
		Credit:      leaf.credit,
	}
}

// groupLeavesByClass inserts one synthetic header per account class whose
// debit/credit are the sum of its children.
func groupLeavesByClass(leaves []tbLeaf) []domain.TrialBalanceRow {
	byClass := make(map[int][]tbLeaf)
	classes := make([]int, 0)
	for _, leaf := range leaves {
		if _, ok := byClass[leaf.account.Class]; !ok {
			classes = append(classes, leaf.account.Class)
		}
		byClass[leaf.account.Class] = append(byClass[leaf.account.Class], leaf)
	}
	sort.Ints(classes)

	rows := make([]domain.TrialBalanceRow, 0, len(leaves)+len(classes))
	for _, class := range classes {
		header := domain.TrialBalanceRow{
			AccountName: fmt.Sprintf("Class %d", class),
			Class:       class,
			IsHeader:    true,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		for _, leaf := range byClass[class] {
			header.Debit = header.Debit.Add(leaf.debit)
			header.Credit = header.Credit.Add(leaf.credit)
		}
		rows = append(rows, header)
		for _, leaf := range byClass[class] {
			rows = append(rows, leafRow(leaf, 1))
		}
	}
	return rows
}

// groupLeavesByHierarchy arranges leaves under parent-account subtotal
// headers. The account arena is checked for parent cycles before traversal:
// the master data does not prove acyclicity.
func groupLeavesByHierarchy(leaves []tbLeaf, accounts []domain.Account) ([]domain.TrialBalanceRow, error) {
	arena := make(map[string]domain.Account, len(accounts))
	for _, acc := range accounts {
		arena[acc.AccountID] = acc
	}
	if err := detectParentCycle(arena); err != nil {
		return nil, err
	}

	leafByID := make(map[string]tbLeaf, len(leaves))
	childIDs := make(map[string][]string)
	roots := make([]string, 0)
	for _, leaf := range leaves {
		leafByID[leaf.account.AccountID] = leaf
		parent := leaf.account.ParentAccountID
		if parent != nil {
			if _, ok := arena[*parent]; ok {
				childIDs[*parent] = append(childIDs[*parent], leaf.account.AccountID)
				continue
			}
		}
		roots = append(roots, leaf.account.AccountID)
	}
	// Parents that carry no balance of their own still head their children.
	for parentID := range childIDs {
		if _, isLeaf := leafByID[parentID]; isLeaf {
			continue
		}
		parent := arena[parentID]
		if parent.ParentAccountID != nil {
			if _, ok := arena[*parent.ParentAccountID]; ok {
				childIDs[*parent.ParentAccountID] = append(childIDs[*parent.ParentAccountID], parentID)
				continue
			}
		}
		roots = append(roots, parentID)
	}
	sortByCode := func(ids []string) {
		sort.Slice(ids, func(i, j int) bool { return arena[ids[i]].Code < arena[ids[j]].Code })
	}
	sortByCode(roots)

	var rows []domain.TrialBalanceRow
	var emit func(id string, depth int) (debit, credit decimal.Decimal)
	emit = func(id string, depth int) (decimal.Decimal, decimal.Decimal) {
		children := childIDs[id]
		leaf, hasOwn := leafByID[id]
		if len(children) == 0 {
			rows = append(rows, leafRow(leaf, depth))
			return leaf.debit, leaf.credit
		}

		account := arena[id]
		headerIdx := len(rows)
		rows = append(rows, domain.TrialBalanceRow{
			AccountID:   account.AccountID,
			AccountCode: account.Code,
			AccountName: account.Name,
			Class:       account.Class,
			IsHeader:    true,
			Depth:       depth,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		})

		debit := decimal.Zero
		credit := decimal.Zero
		if hasOwn {
			// The parent's own postings show as a leaf row beneath its header.
			rows = append(rows, leafRow(leaf, depth+1))
			debit = debit.Add(leaf.debit)
			credit = credit.Add(leaf.credit)
		}
		sortByCode(children)
		for _, childID := range children {
			d, c := emit(childID, depth+1)
			debit = debit.Add(d)
			credit = credit.Add(c)
		}
		rows[headerIdx].Debit = debit
		rows[headerIdx].Credit = credit
		return debit, credit
	}
	for _, root := range roots {
		emit(root, 0)
	}
	return rows, nil
}

// detectParentCycle walks every parent chain in the arena and fails when a
// chain revisits an account.
func detectParentCycle(arena map[string]domain.Account) error {
	for startID := range arena {
		seen := map[string]struct{}{startID: {}}
		current := arena[startID]
		for current.ParentAccountID != nil {
			parentID := *current.ParentAccountID
			next, ok := arena[parentID]
			if !ok {
				break
			}
			if _, revisited := seen[parentID]; revisited {
				return apperrors.NewAppError(500, "account hierarchy contains a cycle through account "+parentID, nil)
			}
			seen[parentID] = struct{}{}
			current = next
		}
	}
	return nil
}

// ComparativeTrialBalance computes per-account net balances at the current
// date and each prior date with variance analysis. Percent is undefined (nil)
// when the prior balance is exactly zero.
func (s *balanceService) ComparativeTrialBalance(ctx context.Context, orgID string, params dto.ComparativeTrialBalanceParams) (*domain.ComparativeTrialBalance, error) {
	accounts, err := s.accounts.ListAccounts(ctx, orgID, domain.AccountFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	currentSums, err := s.ledgerRepo.SumPostingsByOrg(ctx, orgID, params.Current)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate postings: %w", err)
	}
	if err := checkLedgerIntegrity(ctx, orgID, currentSums); err != nil {
		return nil, err
	}

	priorSums := make([]map[string]domain.DebitCredit, len(params.Priors))
	for i, prior := range params.Priors {
		priorSums[i], err = s.ledgerRepo.SumPostingsByOrg(ctx, orgID, prior)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate postings at %s: %w", prior.Format("2006-01-02"), err)
		}
	}

	hundred := decimal.NewFromInt(100)
	rows := make([]domain.ComparativeRow, 0, len(accounts))
	for _, acc := range accounts {
		currentDC := currentSums[acc.AccountID]
		currentNet := accounting.SignedNet(currentDC.Debit, currentDC.Credit, acc.NormalBalance)

		row := domain.ComparativeRow{
			AccountID:   acc.AccountID,
			AccountCode: acc.Code,
			AccountName: acc.Name,
			CurrentNet:  currentNet,
			Priors:      make([]domain.ComparativePoint, len(params.Priors)),
		}

		interesting := !currentNet.IsZero()
		for i, prior := range params.Priors {
			priorDC := priorSums[i][acc.AccountID]
			priorNet := accounting.SignedNet(priorDC.Debit, priorDC.Credit, acc.NormalBalance)
			variance := currentNet.Sub(priorNet)

			point := domain.ComparativePoint{
				AsOf:     prior,
				Net:      priorNet,
				Variance: variance,
			}
			if !priorNet.IsZero() {
				percent := variance.Div(priorNet.Abs()).Mul(hundred)
				point.Percent = &percent
				point.Significant = percent.Abs().GreaterThanOrEqual(params.Threshold) && !params.Threshold.IsZero()
			}
			if !priorNet.IsZero() {
				interesting = true
			}
			row.Priors[i] = point
		}
		if interesting {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountCode < rows[j].AccountCode })

	return &domain.ComparativeTrialBalance{
		OrgID:       orgID,
		CurrentAsOf: params.Current,
		PriorAsOf:   params.Priors,
		Threshold:   params.Threshold,
		Rows:        rows,
	}, nil
}
