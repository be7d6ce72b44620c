package knowledge

import (
	"context"
	"fmt"
	"strings"

	"retirebot/internal/domain"
)

// Provider names registered for the Medicare specialist.
const (
	ProviderMedicareInfo  = "medicare_info"
	ProviderMedicarePlans = "medicare_plans"
)

// QueryKindPlans is the lookup kind for plan search by zip code.
const QueryKindPlans = "plans"

// NewMedicareInfo returns the Medicare topic provider. The data mirrors
// published CMS figures for 2024; a live deployment would swap in a
// provider backed by the CMS APIs.
func NewMedicareInfo() *TopicProvider {
	return newTopicProvider(ProviderMedicareInfo, map[string]string{
		"part a": "Medicare Part A (Hospital Insurance):\n" +
			"- Covers inpatient hospital stays, skilled nursing facility care, hospice care, and some home health care\n" +
			"- Most people don't pay a premium for Part A if they or their spouse paid Medicare taxes while working\n" +
			"- 2024 deductible: $1,632 per benefit period\n" +
			"- Coinsurance varies by length of stay\n" +
			"- Enrollment: Automatic if receiving Social Security benefits at age 65",
		"part b": "Medicare Part B (Medical Insurance):\n" +
			"- Covers doctor visits, outpatient care, medical supplies, and preventive services\n" +
			"- 2024 standard premium: $174.70/month (may be higher based on income)\n" +
			"- Annual deductible: $240\n" +
			"- Typically covers 80% of approved costs after deductible\n" +
			"- Enrollment: Automatic with Part A, but can opt out\n" +
			"- Late enrollment penalty: 10% per year if you don't sign up when first eligible",
		"part c": "Medicare Part C (Medicare Advantage):\n" +
			"- Private insurance alternative to Original Medicare (Parts A & B)\n" +
			"- Often includes Part D (prescription drug coverage)\n" +
			"- May include additional benefits like dental, vision, hearing\n" +
			"- Must have Parts A and B to enroll\n" +
			"- Costs vary by plan and location\n" +
			"- Enrollment periods: Initial, Annual (Oct 15 - Dec 7), Open (Jan 1 - Mar 31)",
		"part d": "Medicare Part D (Prescription Drug Coverage):\n" +
			"- Helps cover the cost of prescription drugs\n" +
			"- Offered by private insurance companies\n" +
			"- Average premium: ~$55/month (varies by plan)\n" +
			"- Late enrollment penalty: 1% per month if you don't have creditable coverage\n" +
			"- Formulary (covered drugs) varies by plan\n" +
			"- Coverage gap (donut hole) exists but is closing",
		"enrollment": "Medicare Enrollment Information:\n" +
			"- Initial Enrollment Period: 3 months before, month of, and 3 months after 65th birthday\n" +
			"- General Enrollment Period: January 1 - March 31 (coverage starts July 1)\n" +
			"- Special Enrollment Periods: Available for certain life events\n" +
			"- Medicare Advantage Open Enrollment: January 1 - March 31\n" +
			"- Annual Enrollment Period: October 15 - December 7 (for Part C and D changes)\n" +
			"- Apply online at ssa.gov/medicare or call 1-800-MEDICARE",
		"costs": "Medicare Costs Overview (2024):\n" +
			"- Part A Premium: $0 for most people (if worked 10+ years)\n" +
			"- Part A Deductible: $1,632 per benefit period\n" +
			"- Part B Premium: $174.70/month (standard)\n" +
			"- Part B Deductible: $240/year\n" +
			"- Part D Premium: ~$55/month average (varies)\n" +
			"- Medicare Advantage: Varies by plan ($0-$200+/month)\n" +
			"- Medigap (Supplemental): $50-$300+/month depending on plan\n" +
			"- Income-Related Monthly Adjustment Amount (IRMAA) may apply for higher incomes",
		"supplemental insurance": "Medicare Supplemental Insurance (Medigap):\n" +
			"- Helps pay for costs not covered by Original Medicare\n" +
			"- 10 standardized plans (A, B, C, D, F, G, K, L, M, N)\n" +
			"- Best time to buy: During 6-month Medigap Open Enrollment Period\n" +
			"- Costs vary by plan, age, location, and insurance company\n" +
			"- Cannot be used with Medicare Advantage\n" +
			"- Guaranteed issue rights in certain situations",
		"florida specific": "Florida Medicare Information:\n" +
			"- Over 4.5 million Medicare beneficiaries in Florida\n" +
			"- Many Medicare Advantage plans available\n" +
			"- Popular plans: Humana, UnitedHealthcare, Blue Cross Blue Shield\n" +
			"- State Health Insurance Assistance Program (SHIP): 1-800-963-5337\n" +
			"- Florida Department of Elder Affairs: elderaffairs.org\n" +
			"- Medicare Savings Programs available for low-income beneficiaries",
	})
}

// medicarePlan is one entry in the sample plan table.
type medicarePlan struct {
	Name    string
	Type    string // advantage | supplement | partd
	Premium string
	Rating  string
}

// PlanSearch answers Medicare plan lookups by Florida zip code against
// a sample plan table keyed the way the CMS plan finder keys results.
type PlanSearch struct {
	plans map[string][]medicarePlan
}

func NewMedicarePlans() *PlanSearch {
	return &PlanSearch{
		plans: map[string][]medicarePlan{
			"33101": { // Miami
				{Name: "Humana Gold Plus HMO", Type: "advantage", Premium: "$0", Rating: "4.5 stars"},
				{Name: "UnitedHealthcare Medicare Advantage", Type: "advantage", Premium: "$15", Rating: "4.0 stars"},
				{Name: "AARP Medicare Supplement Plan G", Type: "supplement", Premium: "$150", Rating: "4.2 stars"},
			},
			"32801": { // Orlando
				{Name: "Blue Cross Blue Shield Medicare Advantage", Type: "advantage", Premium: "$0", Rating: "4.3 stars"},
				{Name: "Humana Medicare Advantage", Type: "advantage", Premium: "$25", Rating: "4.1 stars"},
			},
			"33601": { // Tampa
				{Name: "WellCare Medicare Advantage", Type: "advantage", Premium: "$0", Rating: "4.0 stars"},
				{Name: "Aetna Medicare Advantage", Type: "advantage", Premium: "$20", Rating: "4.4 stars"},
			},
		},
	}
}

func (p *PlanSearch) Name() string { return ProviderMedicarePlans }

func (p *PlanSearch) Lookup(ctx context.Context, q domain.KnowledgeQuery) (*domain.KnowledgeResult, error) {
	zip := strings.TrimSpace(q.Params["zip"])
	plans, ok := p.plans[zip]
	if !ok {
		return nil, domain.ErrNoResult
	}

	planType := strings.ToLower(strings.TrimSpace(q.Params["plan_type"]))
	if planType != "" && planType != "all" {
		filtered := plans[:0:0]
		for _, plan := range plans {
			if strings.Contains(plan.Type, planType) {
				filtered = append(filtered, plan)
			}
		}
		plans = filtered
	}
	if len(plans) == 0 {
		return nil, domain.ErrNoResult
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Available Medicare Plans in %s:\n\n", zip)
	for _, plan := range plans {
		fmt.Fprintf(&sb, "- %s (%s)\n", plan.Name, strings.Title(plan.Type))
		fmt.Fprintf(&sb, "  Premium: %s/month\n", plan.Premium)
		fmt.Fprintf(&sb, "  Rating: %s\n\n", plan.Rating)
	}
	sb.WriteString("Note: This is sample data. For real-time plan information, visit medicare.gov/plan-compare")

	return &domain.KnowledgeResult{Provider: p.Name(), Content: sb.String()}, nil
}
