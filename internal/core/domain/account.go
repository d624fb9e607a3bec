package domain

// Account represents ledger account master data as exposed by the account
// registry. The engine never mutates accounts; it only reads them to validate
// postings and to shape reports.
type Account struct {
	AccountID       string  `json:"accountID"`
	OrgID           string  `json:"orgID"`
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Class           int     `json:"class"` // 0-9, chart-of-accounts class digit
	NormalBalance   Side    `json:"normalBalance"`
	CurrencyCode    string  `json:"currencyCode"`
	ParentAccountID *string `json:"parentAccountID,omitempty"`
	IsActive        bool    `json:"isActive"`
	AllowsPosting   bool    `json:"allowsPosting"`
}

// Postable reports whether new journal lines may target this account.
func (a Account) Postable() bool {
	return a.IsActive && a.AllowsPosting
}

// AccountFilter narrows registry listings for trial-balance computation.
// Zero values mean "no restriction" for the respective dimension.
type AccountFilter struct {
	Classes    []int
	CodeFrom   string
	CodeTo     string
	AccountIDs []string
}

// Matches reports whether the account satisfies every populated dimension.
func (f AccountFilter) Matches(a Account) bool {
	if len(f.Classes) > 0 {
		found := false
		for _, c := range f.Classes {
			if a.Class == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CodeFrom != "" && a.Code < f.CodeFrom {
		return false
	}
	if f.CodeTo != "" && a.Code > f.CodeTo {
		return false
	}
	if len(f.AccountIDs) > 0 {
		found := false
		for _, id := range f.AccountIDs {
			if a.AccountID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
