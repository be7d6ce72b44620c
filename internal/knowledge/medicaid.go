package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"retirebot/internal/domain"
)

// Provider names registered for the Medicaid specialist.
const (
	ProviderMedicaidInfo        = "medicaid_info"
	ProviderMedicaidEligibility = "medicaid_eligibility"
)

// QueryKindEligibility is the lookup kind for the eligibility pre-screen.
const QueryKindEligibility = "eligibility"

// Florida Medicaid financial limits for seniors, 2024.
const (
	standardIncomeLimit = 1215 // monthly, individual
	standardAssetLimit  = 2000
	ltcIncomeLimit      = 2829 // monthly, institutional care program
	ltcAssetLimit       = 2000
)

// NewMedicaidInfo returns the Florida Medicaid topic provider.
func NewMedicaidInfo() *TopicProvider {
	return newTopicProvider(ProviderMedicaidInfo, map[string]string{
		"eligibility": "Florida Medicaid Eligibility for Seniors (65+):\n" +
			"- Must be 65 or older, blind, or disabled\n" +
			"- Income limit: $1,215/month for an individual (2024)\n" +
			"- Asset limit: $2,000 for an individual\n" +
			"- Home, one vehicle, and personal belongings are generally exempt\n" +
			"- Higher income limits apply for long-term care programs\n" +
			"- Medicare beneficiaries may qualify for Medicare Savings Programs",
		"application": "How to Apply for Florida Medicaid:\n" +
			"- Online: ACCESS Florida at myflorida.com/accessflorida\n" +
			"- Phone: 1-866-762-2237\n" +
			"- In person: Local Department of Children and Families office\n" +
			"- Documents needed: Proof of identity, income, assets, residency, and citizenship\n" +
			"- Processing time: Up to 45 days (90 days if disability determination needed)\n" +
			"- Free application help: Area Agency on Aging, 1-800-963-5337",
		"long term care": "Florida Medicaid Long-Term Care:\n" +
			"- Statewide Medicaid Managed Care Long-Term Care program\n" +
			"- Covers nursing facility care and home and community-based services\n" +
			"- Income limit: $2,829/month (2024)\n" +
			"- Asset limit: $2,000 (individual); spousal protections apply\n" +
			"- Qualified Income Trust (Miller Trust) available if income exceeds the limit\n" +
			"- 5-year look-back period on asset transfers\n" +
			"- Waitlist may apply for home and community-based services",
		"nursing home": "Florida Medicaid Nursing Home Coverage:\n" +
			"- Covers room, board, nursing care, and personal care\n" +
			"- Must meet nursing facility level of care requirements\n" +
			"- Income limit: $2,829/month (2024); Qualified Income Trust can help\n" +
			"- Most income goes toward cost of care (personal needs allowance: $130/month)\n" +
			"- Community spouse may keep additional income and assets\n" +
			"- Choose any Medicaid-certified nursing facility",
		"home care": "Florida Medicaid Home and Community-Based Services:\n" +
			"- Long-Term Care waiver covers in-home help as an alternative to a nursing home\n" +
			"- Services: personal care, homemaker, adult day care, respite, home modifications\n" +
			"- Same financial limits as nursing home care\n" +
			"- Enrollment is managed through a waitlist prioritized by need\n" +
			"- Contact the Aging and Disability Resource Center to get screened: 1-800-963-5337",
		"income limits": "Florida Medicaid Income Limits for Seniors (2024):\n" +
			"- Standard Medicaid: $1,215/month (individual), $1,644/month (couple)\n" +
			"- Long-term care programs: $2,829/month (individual)\n" +
			"- Medicare Savings Programs: QMB $1,275/month, SLMB $1,526/month (individual)\n" +
			"- Qualified Income Trust available when income exceeds the long-term care limit\n" +
			"- Limits change each year; verify current figures when applying",
		"asset limits": "Florida Medicaid Asset Limits for Seniors (2024):\n" +
			"- $2,000 for an individual, $3,000 for a couple (both applying)\n" +
			"- Exempt: primary home (equity up to $713,000), one vehicle, personal belongings,\n" +
			"  burial funds up to $2,500, term life insurance\n" +
			"- Community spouse may keep up to $154,140 in countable assets\n" +
			"- 5-year look-back period: transfers for less than fair value cause penalty periods",
		"waiver programs": "Florida Medicaid Waiver Programs for Seniors:\n" +
			"- Long-Term Care Waiver: in-home and community services instead of nursing facility\n" +
			"- Program of All-Inclusive Care for the Elderly (PACE): available in some counties\n" +
			"- Services: case management, personal care, adult day health, respite\n" +
			"- Financial limits match institutional care: $2,829/month income, $2,000 assets\n" +
			"- Screening through the Comprehensive Assessment and Review for Long-Term Care\n" +
			"  Services (CARES) program",
		"florida specific": "Florida Medicaid Program Notes:\n" +
			"- Administered by the Agency for Health Care Administration (AHCA)\n" +
			"- Applications handled by the Department of Children and Families via ACCESS Florida\n" +
			"- Florida did not expand Medicaid; adult eligibility is limited\n" +
			"- Seniors are served mainly through SSI-related Medicaid and long-term care programs\n" +
			"- Elder helpline: 1-800-963-5337",
	})
}

// EligibilityCheck answers a preliminary Florida Medicaid financial
// screen. It is a pre-screen, not a determination; the reply always says
// so.
type EligibilityCheck struct{}

func NewMedicaidEligibility() *EligibilityCheck { return &EligibilityCheck{} }

func (e *EligibilityCheck) Name() string { return ProviderMedicaidEligibility }

func (e *EligibilityCheck) Lookup(ctx context.Context, q domain.KnowledgeQuery) (*domain.KnowledgeResult, error) {
	age, okAge := parseAmount(q.Params["age"])
	income, okIncome := parseAmount(q.Params["monthly_income"])
	assets, okAssets := parseAmount(q.Params["assets"])
	if !okAge || !okIncome || !okAssets {
		return nil, domain.ErrNoResult
	}
	needsLTC := strings.EqualFold(q.Params["long_term_care"], "true") ||
		strings.EqualFold(q.Params["long_term_care"], "yes")

	incomeLimit, assetLimit := float64(standardIncomeLimit), float64(standardAssetLimit)
	program := "standard Medicaid"
	if needsLTC {
		incomeLimit, assetLimit = float64(ltcIncomeLimit), float64(ltcAssetLimit)
		program = "Medicaid long-term care"
	}

	var sb strings.Builder
	sb.WriteString("Preliminary Medicaid Eligibility Check (Florida, 2024):\n\n")
	fmt.Fprintf(&sb, "Program checked: %s\n", program)

	var issues []string
	if age < 65 {
		issues = append(issues, fmt.Sprintf("age %d is under 65 (other pathways exist for blind or disabled applicants)", int(age)))
	}
	if income > incomeLimit {
		note := fmt.Sprintf("monthly income $%.0f exceeds the $%.0f limit", income, incomeLimit)
		if needsLTC {
			note += " (a Qualified Income Trust may still allow qualification)"
		}
		issues = append(issues, note)
	}
	if assets > assetLimit {
		issues = append(issues, fmt.Sprintf("countable assets $%.0f exceed the $%.0f limit (some assets are exempt)", assets, assetLimit))
	}

	if len(issues) == 0 {
		sb.WriteString("Result: You MAY be eligible based on the information provided.\n")
	} else {
		sb.WriteString("Result: You may NOT qualify based on the information provided:\n")
		for _, issue := range issues {
			fmt.Fprintf(&sb, "- %s\n", issue)
		}
	}
	sb.WriteString("\nThis is a preliminary screen only, not an eligibility determination. " +
		"Apply through ACCESS Florida (myflorida.com/accessflorida) or call 1-866-762-2237 for an official decision.")

	return &domain.KnowledgeResult{Provider: e.Name(), Content: sb.String()}, nil
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
